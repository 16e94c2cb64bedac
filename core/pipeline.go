package core

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagomed/pagegen/blocks"
	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/metrics"
	"github.com/santiagomed/pagegen/seo"
	"github.com/santiagomed/pagegen/store"
)

type Step interface {
	Execute(ctx context.Context, state *State) error
}

type StepType int

const (
	LoadTemplate StepType = iota
	ValidateRequest
	GenerateContent
	BuildContext
	RenderBlocks
	GenerateSEO
	PublishPage
	RecordPage
	Done
)

func (s StepType) String() string {
	switch s {
	case LoadTemplate:
		return "load_template"
	case ValidateRequest:
		return "validate_request"
	case GenerateContent:
		return "generate_content"
	case BuildContext:
		return "build_context"
	case RenderBlocks:
		return "render_blocks"
	case GenerateSEO:
		return "generate_seo"
	case PublishPage:
		return "publish_page"
	case RecordPage:
		return "record_page"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// State carries one request through the pipeline. Nothing in it is shared
// between requests.
type State struct {
	Request   *Request
	Template  *store.Template
	Generated *content.Generated
	Tokens    int
	Context   content.Context
	Blocks    []*blocks.Node
	Markup    string
	SEO       seo.Fields
	Schema    []byte
	Title     string
	PageID    int64
	PageURL   string
	Logger    logger.Logger
}

// Output is the result of a completed pipeline.
type Output = State

type Pipeline struct {
	stepManager StepManager
	state       *State
	publisher   StepPublisher
}

func NewPipeline(r *Request, sm StepManager, pub StepPublisher, log logger.Logger) (*Pipeline, error) {
	if r == nil {
		return nil, fmt.Errorf("nil request")
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Pipeline{
		state: &State{
			Request: r,
			PageID:  r.PageID,
			Logger:  log,
		},
		publisher:   pub,
		stepManager: sm,
	}, nil
}

// Output returns the pipeline state. It is complete only after Execute
// returns nil.
func (p *Pipeline) Output() *Output {
	return p.state
}

func (p *Pipeline) Execute(ctx context.Context) (err error) {
	metrics.ActiveGenerations.Inc()
	defer func() {
		metrics.ActiveGenerations.Dec()
		if err != nil {
			metrics.ObserveFailure(err)
			return
		}
		metrics.PagesGenerated.WithLabelValues(p.pageType(), p.state.Request.Model.String()).Inc()
	}()

	ctx = llm.WithBatch(ctx, p.state.Request.BatchID)
	steps := p.stepManager.GetSteps()
	p.state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		select {
		case <-ctx.Done():
			p.state.Logger.Info("Pipeline execution cancelled")
			return ctx.Err()
		default:
		}

		p.state.Logger.Debug(fmt.Sprintf("Attempting to execute step %d: %v", i, stepType))
		step := p.stepManager.GetStep(stepType)
		if step == nil {
			p.state.Logger.Error(fmt.Sprintf("Step %v not found", stepType))
			p.publisher.Error(stepType, fmt.Errorf("step %v not found", stepType))
			return fmt.Errorf("step %v not found", stepType)
		}

		startTime := time.Now()
		if err := step.Execute(ctx, p.state); err != nil {
			p.state.Logger.WithField("error", err).Error(fmt.Sprintf("Error executing step %v", stepType))
			p.publisher.Error(stepType, err)
			return err
		}
		duration := time.Since(startTime)
		metrics.StepDuration.WithLabelValues(stepType.String()).Observe(duration.Seconds())
		p.state.Logger.Info(fmt.Sprintf("Step %v completed in %v", stepType, duration))
		p.publisher.PublishStep(stepType)
	}

	p.state.Logger.Info("Pipeline execution completed")
	p.publisher.PublishStep(Done)
	return nil
}

func (p *Pipeline) pageType() string {
	if p.state.Template == nil {
		return "unknown"
	}
	return p.state.Template.PageType().String()
}

type StepPublisher interface {
	PublishStep(step StepType)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}

// StepManager supplies the ordered steps of a pipeline.
type StepManager interface {
	GetSteps() []StepType
	GetStep(step StepType) Step
}
