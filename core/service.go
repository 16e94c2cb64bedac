package core

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/metrics"
	"github.com/santiagomed/pagegen/store"
	"github.com/santiagomed/pagegen/wordpress"
)

// PageSource looks up previously generated pages and their profiles.
type PageSource interface {
	GetPage(ctx context.Context, pageID int64) (*store.PageRecord, error)
	GetProfile(ctx context.Context, id int64) (content.Profile, error)
}

// PageGetter is implemented by document stores that can read a page back.
type PageGetter interface {
	GetPage(ctx context.Context, id int64) (*wordpress.Page, error)
}

// GeneratorFactory builds the content generator for a model.
type GeneratorFactory func(m llm.Model, cfg llm.Config, log logger.Logger) (llm.Generator, error)

// Options wires a Service. Templates is required. Documents is needed for
// everything but previews; Recorder and Pages are optional.
type Options struct {
	Templates    store.TemplateStore
	Documents    DocumentStore
	Recorder     Recorder
	Pages        PageSource
	LLM          llm.Config
	NewGenerator GeneratorFactory
	DefaultModel llm.Model
	Branding     llm.Branding
	PageStatus   string
	Workers      int
	Logger       logger.Logger
	Now          func() time.Time
}

// Service generates, updates, duplicates and exports pages.
type Service struct {
	opts   Options
	engine *Engine
	logger logger.Logger

	mu         sync.Mutex
	generators map[llm.Model]llm.Generator
}

func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logger.NewNullLogger()
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = llm.NewGenerator
	}
	if opts.Branding == (llm.Branding{}) {
		opts.Branding = llm.DefaultBranding
	}
	s := &Service{
		opts:       opts,
		logger:     opts.Logger,
		generators: make(map[llm.Model]llm.Generator),
	}
	s.engine = NewEngine(s.pipeline, opts.Logger, opts.Workers)
	return s
}

func (s *Service) Start(ctx context.Context) {
	s.engine.Start(ctx)
}

// Shutdown stops the workers and closes any generators holding connections.
func (s *Service) Shutdown(timeout time.Duration) {
	s.engine.Shutdown(timeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	for model, gen := range s.generators {
		if c, ok := gen.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.WithField("model", model.String()).Warn("Failed to close generator")
			}
		}
	}
	s.generators = make(map[llm.Model]llm.Generator)
}

// Templates is the store the service loads templates from.
func (s *Service) Templates() store.TemplateStore {
	return s.opts.Templates
}

func (s *Service) generator(m llm.Model, log logger.Logger) (llm.Generator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen, ok := s.generators[m]; ok {
		return gen, nil
	}
	gen, err := s.opts.NewGenerator(m, s.opts.LLM, log)
	if err != nil {
		return nil, err
	}
	gen = metrics.Instrument(gen, m.String())
	s.generators[m] = gen
	return gen, nil
}

func (s *Service) deps(mode Mode) Deps {
	deps := Deps{
		Templates:  s.opts.Templates,
		Branding:   s.opts.Branding,
		PageStatus: s.opts.PageStatus,
		Now:        s.opts.Now,
	}
	if mode != ModePreview {
		deps.Documents = s.opts.Documents
		deps.Recorder = s.opts.Recorder
	}
	return deps
}

// Steps lists the steps a request in mode runs through, in order.
func (s *Service) Steps(mode Mode) []StepType {
	return NewDefaultStepManager(s.deps(mode)).GetSteps()
}

func (s *Service) pipeline(r *Request, pub StepPublisher, log logger.Logger) (*Pipeline, error) {
	if r.Mode != ModePreview && s.opts.Documents == nil {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "WordPress site not configured.")
	}
	deps := s.deps(r.Mode)
	if r.Generated == nil {
		gen, err := s.generator(r.Model, log)
		if err != nil {
			return nil, err
		}
		deps.Generator = gen
	}
	return NewPipeline(r, NewDefaultStepManager(deps), pub, log)
}

// Run queues r on the worker pool and waits for it or for ctx.
func (s *Service) Run(ctx context.Context, r *Request, pub StepPublisher) (*Output, error) {
	resultChan := s.engine.AddRequest(ctx, r, pub)
	select {
	case res := <-resultChan:
		return res.Output, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Generate creates a new page from templateID for profile.
func (s *Service) Generate(ctx context.Context, templateID int64, profile content.Profile, model llm.Model, pub StepPublisher) (*Output, error) {
	return s.Run(ctx, NewRequest(templateID, profile, model), pub)
}

// Preview renders a page without publishing or recording it.
func (s *Service) Preview(ctx context.Context, templateID int64, profile content.Profile, model llm.Model, pub StepPublisher) (*Output, error) {
	r := NewRequest(templateID, profile, model)
	r.Mode = ModePreview
	return s.Run(ctx, r, pub)
}

// Update re-renders templateID with already generated content and replaces
// the content of page pageID. A profile without a business name, or a zero
// templateID, is taken from the page history.
func (s *Service) Update(ctx context.Context, pageID, templateID int64, generated *content.Generated, profile content.Profile) (*Output, error) {
	if generated == nil {
		return nil, errs.Validation(errs.CodeInvalidRequest, "Generated content is required.", nil)
	}
	if strings.TrimSpace(profile.BusinessName) == "" || templateID == 0 {
		record, stored, err := s.storedPage(ctx, pageID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(profile.BusinessName) == "" {
			profile = stored
		}
		if templateID == 0 {
			templateID = record.TemplateID
		}
	}
	r := NewRequest(templateID, profile, s.opts.DefaultModel)
	r.Mode = ModeUpdate
	r.PageID = pageID
	r.Generated = generated
	return s.Run(ctx, r, nil)
}

// storedPage loads the history record of pageID and the profile it was
// generated for.
func (s *Service) storedPage(ctx context.Context, pageID int64) (*store.PageRecord, content.Profile, error) {
	notFound := errs.NotFound(errs.CodeProfileNotFound, "Business data not found for this page.")
	if s.opts.Pages == nil {
		return nil, content.Profile{}, notFound
	}
	record, err := s.opts.Pages.GetPage(ctx, pageID)
	if errs.IsKind(err, errs.KindNotFound) {
		return nil, content.Profile{}, notFound
	}
	if err != nil {
		return nil, content.Profile{}, err
	}
	profile, err := s.opts.Pages.GetProfile(ctx, record.ProfileID)
	if err != nil {
		return nil, content.Profile{}, err
	}
	return record, profile, nil
}

// Duplicate publishes a new page for profile reusing the content generated
// for page pageID.
func (s *Service) Duplicate(ctx context.Context, pageID int64, profile content.Profile) (*Output, error) {
	if s.opts.Pages == nil {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "Page history not configured.")
	}
	record, err := s.opts.Pages.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	model, err := llm.ParseModel(record.Model)
	if err != nil {
		model = s.opts.DefaultModel
	}
	r := NewRequest(record.TemplateID, profile, model)
	r.Generated = record.Content
	if r.Generated == nil {
		r.Generated = content.NewGenerated()
	}
	return s.Run(ctx, r, nil)
}
