package core

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/fs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/seo"
	"github.com/santiagomed/pagegen/store"
	"github.com/santiagomed/pagegen/wordpress"
)

type MockPages struct {
	mock.Mock
}

func (m *MockPages) GetPage(ctx context.Context, pageID int64) (*store.PageRecord, error) {
	args := m.Called(ctx, pageID)
	record, _ := args.Get(0).(*store.PageRecord)
	return record, args.Error(1)
}

func (m *MockPages) GetProfile(ctx context.Context, id int64) (content.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(content.Profile), args.Error(1)
}

// readableDocuments can also read pages back.
type readableDocuments struct {
	MockDocuments
}

func (m *readableDocuments) GetPage(ctx context.Context, id int64) (*wordpress.Page, error) {
	args := m.Called(ctx, id)
	page, _ := args.Get(0).(*wordpress.Page)
	return page, args.Error(1)
}

type countingFactory struct {
	calls int32
	gen   llm.Generator
	err   error
}

func (f *countingFactory) New(m llm.Model, cfg llm.Config, log logger.Logger) (llm.Generator, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.gen, f.err
}

func newTestService(t *testing.T, opts Options) *Service {
	if opts.Templates == nil {
		opts.Templates = defaultTemplates(t)
	}
	opts.Now = fixedNow
	opts.Workers = 2
	s := NewService(opts)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		s.Shutdown(time.Second)
		cancel()
	})
	return s
}

func TestServicePreviewDoesNotPublish(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(llm.Completion{Text: "Simple plans", TokensUsed: 2}, nil)
	factory := &countingFactory{gen: gen}

	s := newTestService(t, Options{NewGenerator: factory.New})

	out, err := s.Preview(context.Background(), 3, acmeProfile(), llm.ModelGemini, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme - Pricing", out.Title)
	assert.Equal(t, 16, out.Tokens)
	assert.Zero(t, out.PageID)
	gen.AssertNumberOfCalls(t, "Generate", 8)

	// generators are built once per model
	_, err = s.Preview(context.Background(), 2, acmeProfile(), llm.ModelGemini, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&factory.calls))
}

type closingGenerator struct {
	MockGenerator
	closed int32
}

func (g *closingGenerator) Close() error {
	atomic.AddInt32(&g.closed, 1)
	return nil
}

func TestServiceShutdownClosesGenerators(t *testing.T) {
	gen := &closingGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(llm.Completion{Text: "Simple plans"}, nil)
	factory := &countingFactory{gen: gen}

	s := NewService(Options{Templates: defaultTemplates(t), NewGenerator: factory.New, Now: fixedNow})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	_, err := s.Preview(context.Background(), 3, acmeProfile(), llm.ModelGemini, nil)
	require.NoError(t, err)
	s.Shutdown(time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.closed))
}

func TestServiceGenerateRequiresDocumentStore(t *testing.T) {
	factory := &countingFactory{gen: new(MockGenerator)}
	s := newTestService(t, Options{NewGenerator: factory.New})

	_, err := s.Generate(context.Background(), 1, acmeProfile(), llm.ModelOpenAI, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestServiceGenerateMissingAPIKey(t *testing.T) {
	factory := &countingFactory{err: errs.Configuration(errs.CodeMissingAPIKey, "OpenAI API key not configured.")}
	s := newTestService(t, Options{NewGenerator: factory.New, Documents: new(MockDocuments)})

	out, err := s.Generate(context.Background(), 1, acmeProfile(), llm.ModelOpenAI, nil)
	require.Error(t, err)
	assert.Nil(t, out)

	res := NewResult(out, err)
	assert.False(t, res.Success)
	assert.Equal(t, "configuration", res.Kind)
	assert.Equal(t, errs.CodeMissingAPIKey, res.Code)
	assert.Equal(t, "OpenAI API key not configured.", res.Message)
}

func TestServiceSteps(t *testing.T) {
	base := []StepType{LoadTemplate, ValidateRequest, GenerateContent, BuildContext, RenderBlocks, GenerateSEO}

	s := NewService(Options{Templates: defaultTemplates(t)})
	assert.Equal(t, base, s.Steps(ModePreview))
	assert.Equal(t, base, s.Steps(ModeCreate))

	s = NewService(Options{Templates: defaultTemplates(t), Documents: new(MockDocuments)})
	assert.Equal(t, base, s.Steps(ModePreview))
	assert.Equal(t, append(base[:len(base):len(base)], PublishPage), s.Steps(ModeCreate))

	s = NewService(Options{Templates: defaultTemplates(t), Documents: new(MockDocuments), Recorder: newMemoryHistory()})
	assert.Equal(t, base, s.Steps(ModePreview))
	assert.Equal(t, append(base[:len(base):len(base)], PublishPage, RecordPage), s.Steps(ModeCreate))
}

func TestServiceGeneratePublishes(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(llm.Completion{Text: "Hello", TokensUsed: 1}, nil)
	docs := new(MockDocuments)
	docs.On("CreatePage", mock.Anything, mock.Anything).Return(int64(8), nil)
	docs.On("UpdatePage", mock.Anything, int64(8), mock.Anything).Return(nil)

	s := newTestService(t, Options{
		NewGenerator: (&countingFactory{gen: gen}).New,
		Documents:    docs,
		PageStatus:   "publish",
	})

	pub := &recordingPublisher{}
	out, err := s.Generate(context.Background(), 2, acmeProfile(), llm.ModelClaude, pub)
	require.NoError(t, err)

	res := NewResult(out, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "Page generated successfully!", res.Message)
	assert.Equal(t, int64(8), res.PageID)
	assert.Equal(t, "https://example.com/?page_id=8", res.PageURL)
	assert.Equal(t, "About Acme", res.Title)
	docs.AssertCalled(t, "CreatePage", mock.Anything, mock.MatchedBy(func(in wordpress.PageInput) bool {
		return in.Status == "publish"
	}))
	assert.Equal(t, Done, pub.steps[len(pub.steps)-1])
}

func TestServiceUpdate(t *testing.T) {
	docs := new(MockDocuments)
	docs.On("UpdatePage", mock.Anything, int64(30), mock.Anything).Return(nil)
	factory := &countingFactory{}
	s := newTestService(t, Options{NewGenerator: factory.New, Documents: docs})

	out, err := s.Update(context.Background(), 30, 1, content.NewGenerated().SetText("hero_headline", "New"), acmeProfile())
	require.NoError(t, err)
	assert.Equal(t, "Page updated successfully!", NewResult(out, nil).Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&factory.calls))

	_, err = s.Update(context.Background(), 30, 1, nil, acmeProfile())
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

// memoryHistory keeps page records and profiles in memory.
type memoryHistory struct {
	mu       sync.Mutex
	pages    map[int64]*store.PageRecord
	profiles map[int64]content.Profile
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{pages: map[int64]*store.PageRecord{}, profiles: map[int64]content.Profile{}}
}

func (h *memoryHistory) SaveProfile(ctx context.Context, p content.Profile) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := int64(len(h.profiles) + 1)
	h.profiles[id] = p
	return id, nil
}

func (h *memoryHistory) RecordPage(ctx context.Context, r *store.PageRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages[r.PageID] = r
	return nil
}

func (h *memoryHistory) UpdatePageContent(ctx context.Context, pageID int64, generated *content.Generated, fields seo.Fields) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.pages[pageID]
	if !ok {
		return errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	r.Content = generated
	r.SEO = fields
	return nil
}

func (h *memoryHistory) GetPage(ctx context.Context, pageID int64) (*store.PageRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.pages[pageID]
	if !ok {
		return nil, errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	return r, nil
}

func (h *memoryHistory) GetProfile(ctx context.Context, id int64) (content.Profile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.profiles[id]
	if !ok {
		return p, errs.NotFound(errs.CodeProfileNotFound, "Business profile not found.")
	}
	return p, nil
}

func TestServiceUpdateThenDuplicateUsesNewContent(t *testing.T) {
	history := newMemoryHistory()
	history.profiles[1] = acmeProfile()
	history.pages[42] = &store.PageRecord{
		ProfileID:  1,
		TemplateID: 1,
		PageID:     42,
		Model:      "openai",
		Content:    content.NewGenerated().SetText("hero_headline", "Old headline"),
	}

	docs := new(MockDocuments)
	docs.On("UpdatePage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	docs.On("CreatePage", mock.Anything, mock.Anything).Return(int64(43), nil)
	factory := &countingFactory{}
	s := newTestService(t, Options{NewGenerator: factory.New, Documents: docs, Recorder: history, Pages: history})
	ctx := context.Background()

	// profile and template come from the page history
	out, err := s.Update(ctx, 42, 0, content.NewGenerated().SetText("hero_headline", "New headline"), content.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "Acme", out.Title)
	assert.Equal(t, int64(1), out.Template.ID)
	assert.Contains(t, out.Markup, "New headline")

	record, err := history.GetPage(ctx, 42)
	require.NoError(t, err)
	slot, ok := record.Content.Get("hero_headline")
	require.True(t, ok)
	assert.Equal(t, "New headline", slot.Text)

	dup, err := s.Duplicate(ctx, 42, content.Profile{BusinessName: "Beta Bakery"})
	require.NoError(t, err)
	assert.Equal(t, int64(43), dup.PageID)
	assert.Contains(t, dup.Markup, "New headline")
	assert.NotContains(t, dup.Markup, "Old headline")
	assert.Equal(t, int32(0), atomic.LoadInt32(&factory.calls))
}

func TestServiceUpdateWithoutStoredProfile(t *testing.T) {
	docs := new(MockDocuments)
	s := newTestService(t, Options{NewGenerator: (&countingFactory{}).New, Documents: docs, Pages: newMemoryHistory()})

	_, err := s.Update(context.Background(), 42, 1, content.NewGenerated(), content.Profile{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
	assert.Equal(t, errs.CodeProfileNotFound, errs.CodeOf(err))
	docs.AssertNotCalled(t, "UpdatePage", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceDuplicateReusesContent(t *testing.T) {
	pages := new(MockPages)
	pages.On("GetPage", mock.Anything, int64(42)).Return(&store.PageRecord{
		TemplateID: 1,
		PageID:     42,
		Model:      "claude",
		Content:    content.NewGenerated().SetText("hero_headline", "Fresh Bread Daily").SetText("business_name", "Acme"),
	}, nil)
	pages.On("GetPage", mock.Anything, int64(404)).Return(nil, errs.NotFound(errs.CodePageNotFound, "Page not found."))

	docs := new(MockDocuments)
	docs.On("CreatePage", mock.Anything, mock.MatchedBy(func(in wordpress.PageInput) bool {
		return in.Title == "Beta Bakery"
	})).Return(int64(43), nil)
	docs.On("UpdatePage", mock.Anything, int64(43), mock.Anything).Return(nil)

	factory := &countingFactory{}
	s := newTestService(t, Options{NewGenerator: factory.New, Documents: docs, Pages: pages})

	out, err := s.Duplicate(context.Background(), 42, content.Profile{BusinessName: "Beta Bakery"})
	require.NoError(t, err)
	assert.Equal(t, int64(43), out.PageID)
	assert.Equal(t, "Beta Bakery - Fresh Bread Daily", out.SEO[seo.FieldMetaTitle])
	assert.Equal(t, llm.ModelClaude, out.Request.Model)
	assert.Equal(t, int32(0), atomic.LoadInt32(&factory.calls))

	_, err = s.Duplicate(context.Background(), 404, acmeProfile())
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestServiceExport(t *testing.T) {
	generated := content.NewGenerated().SetText("page_title", "Our Story")
	pages := new(MockPages)
	pages.On("GetPage", mock.Anything, int64(9)).Return(&store.PageRecord{
		ProfileID:    4,
		PageID:       9,
		Content:      generated,
		TemplateName: "Professional About Us",
		TemplateType: "about",
	}, nil)
	pages.On("GetProfile", mock.Anything, int64(4)).Return(acmeProfile(), nil)

	docs := new(readableDocuments)
	docs.On("GetPage", mock.Anything, int64(9)).Return(&wordpress.Page{
		ID:      9,
		Title:   "About Acme",
		Link:    "https://example.com/about-acme/",
		Content: "<h2>Our Story</h2><p>Since 1990.</p>",
	}, nil)

	s := newTestService(t, Options{Documents: docs, Pages: pages})

	data, err := s.Export(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 12:00:00", data.ExportDate)
	assert.Equal(t, "About Acme", data.PageTitle)
	assert.Equal(t, "https://example.com/about-acme/", data.PageURL)
	assert.Equal(t, "Acme", data.BusinessData.BusinessName)
	assert.Equal(t, ExportTemplate{Name: "Professional About Us", Type: "about"}, data.Template)

	mem := fs.NewMemoryFileSystem()
	name, err := WriteExport(mem, "exports", 9, data)
	require.NoError(t, err)
	assert.Equal(t, "exports/page-9.json", name)
	raw, err := mem.ReadFile(name)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "About Acme", decoded["page_title"])
	assert.Equal(t, map[string]interface{}{"page_title": "Our Story"}, decoded["ai_content"])

	var buf bytes.Buffer
	require.NoError(t, WriteExportZip(&buf, 9, data))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(body)
	}
	assert.Contains(t, files, "page-9.json")
	assert.Equal(t, data.Markup, files["content.html"])
	assert.Contains(t, files["outline.json"], "Our Story")
}

func TestServiceExportWithoutHistory(t *testing.T) {
	s := newTestService(t, Options{})
	_, err := s.Export(context.Background(), 1)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestEngineRunsRequests(t *testing.T) {
	var built int32
	build := func(r *Request, pub StepPublisher, log logger.Logger) (*Pipeline, error) {
		atomic.AddInt32(&built, 1)
		if r.TemplateID == 0 {
			return nil, errors.New("no template")
		}
		return NewPipeline(r, NewDefaultStepManager(Deps{Templates: store.NewMemoryStore()}), pub, log)
	}
	e := NewEngine(build, nil, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)
	defer e.Shutdown(time.Second)

	var chans []chan ExecutionResult
	for i := 0; i < 5; i++ {
		chans = append(chans, e.AddRequest(context.Background(), NewRequest(int64(i+1), acmeProfile(), llm.ModelOpenAI), nil))
	}
	for _, ch := range chans {
		res := <-ch
		assert.True(t, errs.IsKind(res.Err, errs.KindNotFound))
		assert.NotNil(t, res.Output)
	}

	res := <-e.AddRequest(context.Background(), NewRequest(0, acmeProfile(), llm.ModelOpenAI), nil)
	assert.EqualError(t, res.Err, "no template")
	assert.Nil(t, res.Output)
	assert.Equal(t, int32(6), atomic.LoadInt32(&built))
}

func TestNewResult(t *testing.T) {
	res := NewResult(nil, errors.New("disk full"))
	assert.False(t, res.Success)
	assert.Equal(t, "internal", res.Kind)
	assert.Equal(t, "disk full", res.Message)

	res = NewResult(nil, errs.NotFound(errs.CodeTemplateNotFound, "Template not found."))
	assert.Equal(t, "not_found", res.Kind)
	assert.Equal(t, errs.CodeTemplateNotFound, res.Code)

	res = NewResult(nil, nil)
	assert.False(t, res.Success)

	res = NewResult(&Output{Request: &Request{Mode: ModePreview}, Title: "Acme", Tokens: 4}, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "Preview generated successfully!", res.Message)
	assert.Equal(t, 4, res.Tokens)
}
