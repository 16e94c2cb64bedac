package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/seo"
)

func newProfileCmd(t *testing.T, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addProfileFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestParseProfileFlags(t *testing.T) {
	cmd := newProfileCmd(t,
		"--name", "Acme",
		"--type", "bakery",
		"--address", "1 Main St, Springfield",
		"--social", "facebook=https://facebook.com/acme",
		"--user", "9",
	)
	p, err := parseProfile(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.BusinessName)
	assert.Equal(t, "bakery", p.BusinessType)
	assert.Equal(t, "Springfield", p.Location())
	assert.Equal(t, map[string]string{"facebook": "https://facebook.com/acme"}, p.SocialMedia)
	assert.Equal(t, int64(9), p.UserID)
	assert.Empty(t, p.Email)
}

func TestParseProfileFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"business_name": "Acme",
		"email": "hi@acme.test",
		"social_media": {"twitter": "https://x.com/acme"}
	}`), 0o644))

	cmd := newProfileCmd(t, "--profile", path, "--name", "Acme Labs", "--social", "facebook=https://facebook.com/acme")
	p, err := parseProfile(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", p.BusinessName)
	assert.Equal(t, "hi@acme.test", p.Email)
	assert.Len(t, p.SocialMedia, 2)
}

func TestParseProfileInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"business_name": ""}`), 0o644))

	_, err := parseProfile(newProfileCmd(t, "--profile", path))
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func noopRunner(ctx context.Context, templateID int64, profile content.Profile, model llm.Model, pub core.StepPublisher) (*core.Output, error) {
	return nil, nil
}

func TestGenerateModelAsksForName(t *testing.T) {
	m := newGenerateModel(context.Background(), noopRunner, content.Profile{}, genFlags{templateID: 1}, nil, logger.NewNullLogger())
	assert.Equal(t, Input, m.state)
	assert.Contains(t, m.View(), "What is the business called?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.Equal(t, Input, next.(generateCmdModel).state)

	m.textInput.SetValue("Acme")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	gm := next.(generateCmdModel)
	assert.Equal(t, Processing, gm.state)
	assert.Equal(t, "Acme", gm.profile.BusinessName)
}

func TestGenerateModelTracksSteps(t *testing.T) {
	steps := []core.StepType{core.LoadTemplate, core.ValidateRequest, core.GenerateContent}
	m := newGenerateModel(context.Background(), noopRunner, content.Profile{BusinessName: "Acme"}, genFlags{}, steps, logger.NewNullLogger())
	assert.Equal(t, Processing, m.state)
	assert.Equal(t, []core.StepType{core.LoadTemplate, core.ValidateRequest, core.GenerateContent, core.Done}, m.steps)

	next, cmd := m.Update(core.LoadTemplate)
	assert.NotNil(t, cmd)
	gm := next.(generateCmdModel)
	assert.Len(t, gm.completedSteps, 1)
	view := gm.View()
	assert.Contains(t, view, "Loaded template.")
	assert.Contains(t, view, "Validating business details.")
	assert.NotContains(t, view, "Generating content.")

	_, cmd = gm.Update(core.Done)
	assert.Nil(t, cmd)
}

func TestGenerateModelCopiesSteps(t *testing.T) {
	backing := make([]core.StepType, 2, 4)
	backing[0], backing[1] = core.LoadTemplate, core.ValidateRequest
	m := newGenerateModel(context.Background(), noopRunner, content.Profile{BusinessName: "Acme"}, genFlags{}, backing, logger.NewNullLogger())
	assert.Equal(t, []core.StepType{core.LoadTemplate, core.ValidateRequest, core.Done}, m.steps)

	grown := append(backing, core.PublishPage)
	assert.Equal(t, core.PublishPage, grown[2])
	assert.Equal(t, core.Done, m.steps[2])
}

func TestGenerateModelWritesPreviewMarkup(t *testing.T) {
	out := filepath.Join(t.TempDir(), "page.html")
	m := newGenerateModel(context.Background(), noopRunner, content.Profile{BusinessName: "Acme"}, genFlags{preview: true, output: out}, nil, logger.NewNullLogger())

	next, cmd := m.Update(resultMsg{out: &core.Output{
		Request: &core.Request{Mode: core.ModePreview},
		Title:   "Acme",
		Markup:  "<!-- wp:heading {\"content\":\"Hi\"} /-->",
	}})
	assert.NotNil(t, cmd)
	gm := next.(generateCmdModel)
	assert.Equal(t, Finished, gm.state)
	assert.True(t, gm.result.Success)
	assert.Equal(t, "Preview generated successfully!", gm.result.Message)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wp:heading")
}

func TestRenderResult(t *testing.T) {
	failed := renderResult(core.NewResult(nil, errs.NotFound(errs.CodeTemplateNotFound, "Template not found.")))
	assert.Contains(t, failed, "Template not found.")
	assert.Contains(t, failed, "not_found")

	ok := renderResult(core.Result{
		Success: true,
		Message: "Page generated successfully!",
		Title:   "Acme",
		PageID:  12,
		SEO:     seo.Fields{seo.FieldMetaTitle: "Acme - Fresh Bread"},
	})
	assert.Contains(t, ok, "Page generated successfully!")
	assert.Contains(t, ok, "Acme - Fresh Bread")
	assert.Contains(t, ok, "12")
	assert.Contains(t, ok, "SEO score")
}

func TestCliStepPublisherDropsWhenFull(t *testing.T) {
	p := NewCliStepPublisher(logger.NewNullLogger())
	for i := 0; i < 105; i++ {
		p.PublishStep(core.LoadTemplate)
	}
	assert.Len(t, p.events, 100)
	p.Error(core.GenerateContent, assert.AnError)
	assert.Len(t, p.events, 100)
}

func TestCliStepPublisherKeepsOrder(t *testing.T) {
	p := NewCliStepPublisher(logger.NewNullLogger())
	p.PublishStep(core.LoadTemplate)
	p.Error(core.ValidateRequest, assert.AnError)

	assert.Equal(t, core.LoadTemplate, p.next())
	err, ok := p.next().(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "validate_request")
}
