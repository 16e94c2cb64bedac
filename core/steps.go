package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/santiagomed/pagegen/blocks"
	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/seo"
	"github.com/santiagomed/pagegen/store"
	"github.com/santiagomed/pagegen/wordpress"
)

// DocumentStore publishes rendered pages.
type DocumentStore interface {
	CreatePage(ctx context.Context, in wordpress.PageInput) (int64, error)
	UpdatePage(ctx context.Context, id int64, in wordpress.PageInput) error
}

// FeaturedImageSetter is implemented by document stores that can attach a
// featured image to a page.
type FeaturedImageSetter interface {
	SetFeaturedImage(ctx context.Context, pageID int64, imageURL string) error
}

// PageLinker is implemented by document stores that can resolve a page's
// public URL.
type PageLinker interface {
	PageURL(ctx context.Context, id int64) string
}

// Recorder keeps the history of generated pages.
type Recorder interface {
	SaveProfile(ctx context.Context, p content.Profile) (int64, error)
	RecordPage(ctx context.Context, r *store.PageRecord) error
	UpdatePageContent(ctx context.Context, pageID int64, generated *content.Generated, fields seo.Fields) error
}

// Deps are the collaborators the default steps use. Documents and Recorder
// are optional; their steps are left out when they are nil.
type Deps struct {
	Templates  store.TemplateStore
	Generator  llm.Generator
	Documents  DocumentStore
	Recorder   Recorder
	Branding   llm.Branding
	PageStatus string
	Now        func() time.Time
}

type DefaultStepManager struct {
	steps []StepType
	impls map[StepType]Step
}

func NewDefaultStepManager(d Deps) *DefaultStepManager {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PageStatus == "" {
		d.PageStatus = "draft"
	}
	sm := &DefaultStepManager{
		steps: []StepType{LoadTemplate, ValidateRequest, GenerateContent, BuildContext, RenderBlocks, GenerateSEO},
		impls: map[StepType]Step{
			LoadTemplate:    &loadTemplateStep{templates: d.Templates},
			ValidateRequest: &validateRequestStep{},
			GenerateContent: &generateContentStep{generator: d.Generator, branding: d.Branding},
			BuildContext:    &buildContextStep{},
			RenderBlocks:    &renderBlocksStep{},
			GenerateSEO:     &generateSEOStep{now: d.Now},
		},
	}
	if d.Documents != nil {
		sm.steps = append(sm.steps, PublishPage)
		sm.impls[PublishPage] = &publishPageStep{documents: d.Documents, status: d.PageStatus}
	}
	if d.Recorder != nil {
		sm.steps = append(sm.steps, RecordPage)
		sm.impls[RecordPage] = &recordPageStep{recorder: d.Recorder}
	}
	return sm
}

func (sm *DefaultStepManager) GetSteps() []StepType {
	return sm.steps
}

func (sm *DefaultStepManager) GetStep(step StepType) Step {
	return sm.impls[step]
}

type loadTemplateStep struct {
	templates store.TemplateStore
}

func (s *loadTemplateStep) Execute(ctx context.Context, state *State) error {
	if s.templates == nil {
		return errs.Configuration(errs.CodeInvalidConfig, "Template store not configured.")
	}
	t, err := s.templates.GetTemplate(ctx, state.Request.TemplateID)
	if err != nil {
		return err
	}
	state.Template = t
	state.Logger.WithField("template", t.Name).Debug("Template loaded")
	return nil
}

type validateRequestStep struct{}

func (s *validateRequestStep) Execute(ctx context.Context, state *State) error {
	if err := state.Request.Profile.Validate(); err != nil {
		return err
	}
	if state.Request.Mode == ModeUpdate && state.Request.PageID == 0 {
		return errs.Validation(errs.CodeInvalidRequest, "Page ID is required.", nil)
	}
	return nil
}

type generateContentStep struct {
	generator llm.Generator
	branding  llm.Branding
}

func (s *generateContentStep) Execute(ctx context.Context, state *State) error {
	pageType := state.Template.PageType()
	profile := state.Request.Profile

	if state.Request.Generated != nil {
		// reused content gets extras for the current profile
		generated := content.NewGenerated()
		state.Request.Generated.Each(func(key string, slot content.Slot) {
			generated.Set(key, slot)
		})
		llm.AddExtras(generated, pageType, profile, s.branding)
		state.Generated = generated
		state.Logger.Debug("Reusing generated content")
		return nil
	}

	if s.generator == nil {
		return errs.Configuration(errs.CodeMissingAPIKey, "Content generator not configured.")
	}
	generated, tokens, err := llm.GenerateContent(ctx, s.generator, pageType, profile, s.branding, state.Logger)
	if err != nil {
		return err
	}
	state.Generated = generated
	state.Tokens = tokens
	state.Logger.WithField("tokens", tokens).Info("Content generated")
	return nil
}

type buildContextStep struct{}

func (s *buildContextStep) Execute(ctx context.Context, state *State) error {
	state.Context = content.Build(state.Request.Profile, state.Generated)
	return nil
}

type renderBlocksStep struct{}

func (s *renderBlocksStep) Execute(ctx context.Context, state *State) error {
	state.Blocks = blocks.Substitute(state.Template.Blocks, state.Context)
	markup, err := blocks.Markup(state.Blocks)
	if err != nil {
		return fmt.Errorf("serialize blocks: %w", err)
	}
	state.Markup = markup
	state.Title = PageTitle(state.Request.Profile, state.Template.Type)
	return nil
}

type generateSEOStep struct {
	now func() time.Time
}

func (s *generateSEOStep) Execute(ctx context.Context, state *State) error {
	fields := seo.Generate(state.Template.SEO, state.Context, state.Request.Profile.Address, s.now())
	state.SEO = seo.Complete(fields)
	return nil
}

type publishPageStep struct {
	documents DocumentStore
	status    string
}

func (s *publishPageStep) Execute(ctx context.Context, state *State) error {
	profile := state.Request.Profile
	aiContent, err := json.Marshal(state.Generated)
	if err != nil {
		return err
	}

	if state.Request.Mode == ModeUpdate {
		meta := map[string]string{"_gsba_ai_content": string(aiContent)}
		return s.documents.UpdatePage(ctx, state.PageID, wordpress.PageInput{Content: state.Markup, Meta: meta})
	}

	businessData, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	meta := map[string]string{
		"_gsba_generated":     "1",
		"_gsba_template_id":   strconv.FormatInt(state.Template.ID, 10),
		"_gsba_business_data": string(businessData),
		"_gsba_ai_content":    string(aiContent),
	}
	for field, value := range seoMeta(state.SEO) {
		meta[field] = value
	}

	id, err := s.documents.CreatePage(ctx, wordpress.PageInput{
		Title:   state.Title,
		Content: state.Markup,
		Status:  s.status,
		Meta:    meta,
	})
	if err != nil {
		return err
	}
	state.PageID = id

	// the page exists from here on; enrichment failures are only logged
	if setter, ok := s.documents.(FeaturedImageSetter); ok && profile.LogoURL != "" {
		if err := setter.SetFeaturedImage(ctx, id, profile.LogoURL); err != nil {
			state.Logger.WithField("error", err).Warn("Could not set featured image")
		}
	}
	if linker, ok := s.documents.(PageLinker); ok {
		state.PageURL = linker.PageURL(ctx, id)
	}
	schema, err := seo.SchemaMarkup(profile, state.PageURL)
	if err != nil {
		state.Logger.WithField("error", err).Warn("Could not build schema markup")
		return nil
	}
	state.Schema = schema
	err = s.documents.UpdatePage(ctx, id, wordpress.PageInput{Meta: map[string]string{"_gsba_schema_markup": string(schema)}})
	if err != nil {
		state.Logger.WithField("error", err).Warn("Could not store schema markup")
	}
	return nil
}

func seoMeta(f seo.Fields) map[string]string {
	meta := map[string]string{
		"_gsba_meta_title":       f[seo.FieldMetaTitle],
		"_gsba_meta_description": f[seo.FieldMetaDescription],
		"_gsba_meta_keywords":    f[seo.FieldKeywords],
	}
	for _, field := range []string{seo.FieldOGTitle, seo.FieldOGDescription, seo.FieldOGImage, seo.FieldOGType} {
		meta["_gsba_"+field] = f[field]
	}
	if data, err := json.Marshal(f); err == nil {
		meta["_gsba_seo_data"] = string(data)
	}
	return meta
}

type recordPageStep struct {
	recorder Recorder
}

// Recording happens after publishing, so failures are logged rather than
// returned.
func (s *recordPageStep) Execute(ctx context.Context, state *State) error {
	switch state.Request.Mode {
	case ModeUpdate:
		if err := s.recorder.UpdatePageContent(ctx, state.PageID, state.Generated, state.SEO); err != nil {
			state.Logger.WithField("error", err).Warn("Could not update recorded page content")
		}
		return nil
	case ModePreview:
		return nil
	}
	profileID, err := s.recorder.SaveProfile(ctx, state.Request.Profile)
	if err != nil {
		state.Logger.WithField("error", err).Warn("Could not save business profile")
		return nil
	}
	record := &store.PageRecord{
		UserID:     state.Request.Profile.UserID,
		ProfileID:  profileID,
		TemplateID: state.Template.ID,
		PageID:     state.PageID,
		Content:    state.Generated,
		Model:      state.Request.Model.String(),
		SEO:        state.SEO,
	}
	if err := s.recorder.RecordPage(ctx, record); err != nil {
		state.Logger.WithField("error", err).Warn("Could not record generated page")
	}
	return nil
}

// PageTitle names a generated page after the business and template type.
func PageTitle(p content.Profile, templateType string) string {
	name := p.BusinessName
	switch templateType {
	case "landing":
		return name
	case "about":
		return "About " + name
	case "pricing":
		return name + " - Pricing"
	default:
		return name + " - " + capitalize(templateType)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
