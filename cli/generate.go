package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/seo"
)

const generationTimeout = 10 * time.Minute

type state int

const (
	Input state = iota
	Processing
	Finished
)

type genFlags struct {
	templateID int64
	model      llm.Model
	preview    bool
	output     string
}

// runner starts a generation; it is core.Service.Generate or Preview.
type runner func(ctx context.Context, templateID int64, profile content.Profile, model llm.Model, pub core.StepPublisher) (*core.Output, error)

type resultMsg struct {
	out *core.Output
	err error
}

var stepLabels = map[core.StepType]struct {
	present string
	past    string
}{
	core.LoadTemplate:    {"Loading template.", "Loaded template."},
	core.ValidateRequest: {"Validating business details.", "Validated business details."},
	core.GenerateContent: {"Generating content.", "Generated content."},
	core.BuildContext:    {"Building placeholder context.", "Built placeholder context."},
	core.RenderBlocks:    {"Rendering blocks.", "Rendered blocks."},
	core.GenerateSEO:     {"Generating SEO fields.", "Generated SEO fields."},
	core.PublishPage:     {"Publishing page.", "Published page."},
	core.RecordPage:      {"Recording page.", "Recorded page."},
	core.Done:            {"Done.", "Done."},
}

type generateCmdModel struct {
	textInput      textinput.Model
	spinner        spinner.Model
	state          state
	profile        content.Profile
	flags          genFlags
	steps          []core.StepType
	completedSteps []core.StepType
	run            runner
	ctx            context.Context
	publisher      *CliStepPublisher
	logger         logger.Logger
	result         core.Result
}

func newGenerateModel(ctx context.Context, run runner, profile content.Profile, f genFlags, steps []core.StepType, log logger.Logger) generateCmdModel {
	ti := textinput.New()
	ti.Placeholder = "Business name..."
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	st := Processing
	if strings.TrimSpace(profile.BusinessName) == "" {
		st = Input
	}
	all := make([]core.StepType, 0, len(steps)+1)
	all = append(all, steps...)
	return generateCmdModel{
		textInput: ti,
		spinner:   s,
		state:     st,
		profile:   profile,
		flags:     f,
		steps:     append(all, core.Done),
		run:       run,
		ctx:       ctx,
		publisher: NewCliStepPublisher(log),
		logger:    log,
	}
}

func (m generateCmdModel) Init() tea.Cmd {
	if m.state == Input {
		return textinput.Blink
	}
	return tea.Batch(m.spinner.Tick, m.startGeneration())
}

func (m generateCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.state == Finished {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == Input {
			return m.handleInputState(msg)
		}
		return m.handleQuit(msg)
	case core.StepType:
		return m.handleStep(msg)
	case resultMsg:
		return m.handleResult(msg)
	case error:
		m.logger.Error(fmt.Sprintf("Error received during page generation: %v", msg))
		return m, nil
	default:
		if m.state == Processing {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m generateCmdModel) View() string {
	switch m.state {
	case Input:
		return fmt.Sprintf(
			"What is the business called?\n\n%s\n\n%s",
			m.textInput.View(),
			"(press enter to generate the page or esc to quit)",
		)
	case Processing:
		enumerator := func(l list.Items, i int) string {
			if i < len(m.completedSteps) {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
			}
			return m.spinner.View()
		}

		l := list.New().Enumerator(enumerator)
		for i, step := range m.steps {
			label := stepLabels[step]
			if i < len(m.completedSteps) {
				l.Item(label.past)
			} else if i == len(m.completedSteps) {
				l.Item(label.present)
			}
		}
		return fmt.Sprint(l)
	default:
		return ""
	}
}

func (m generateCmdModel) handleInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v := strings.TrimSpace(m.textInput.Value())
		if v == "" {
			message := lipgloss.NewStyle().Faint(true).Render("No business name entered. Exiting...")
			return m, tea.Sequence(tea.Printf("%s", message), tea.Quit)
		}
		m.profile.BusinessName = v
		m.state = Processing
		message := lipgloss.NewStyle().Faint(true).Width(80).Render(fmt.Sprintf("> %s", v))
		return m, tea.Batch(tea.Printf("%s", message), m.spinner.Tick, m.startGeneration())
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m generateCmdModel) handleQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		m.logger.Debug("User exited the application")
		message := lipgloss.NewStyle().Faint(true).Render("Interrupted. Exiting application...")
		return m, tea.Sequence(tea.Printf("%s", message), tea.Quit)
	}
	return m, nil
}

func (m generateCmdModel) listenForNextStep() tea.Msg {
	return m.publisher.next()
}

func (m generateCmdModel) startGeneration() tea.Cmd {
	profile, f, run, pub := m.profile, m.flags, m.run, m.publisher
	ctx := m.ctx
	generate := func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, generationTimeout)
		defer cancel()
		out, err := run(ctx, f.templateID, profile, f.model, pub)
		return resultMsg{out: out, err: err}
	}
	return tea.Batch(m.listenForNextStep, generate)
}

func (m generateCmdModel) handleStep(step core.StepType) (tea.Model, tea.Cmd) {
	m.logger.Debug(fmt.Sprintf("Received step: %v", step))
	m.completedSteps = append(m.completedSteps, step)
	if step == core.Done {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, m.listenForNextStep)
}

func (m generateCmdModel) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	m.state = Finished
	m.result = core.NewResult(msg.out, msg.err)
	if msg.err == nil && m.flags.output != "" {
		if err := writeMarkup(m.flags.output, msg.out.Markup); err != nil {
			m.result.Message += fmt.Sprintf(" (could not write %s: %v)", m.flags.output, err)
		}
	}
	return m, tea.Sequence(tea.Printf("%s", renderResult(m.result)), tea.Quit)
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	labelStyle   = lipgloss.NewStyle().Faint(true).Width(18)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// renderResult formats a result for the terminal.
func renderResult(res core.Result) string {
	if !res.Success {
		return errorStyle.Render(fmt.Sprintf("Error (%s): %s", res.Kind, res.Message))
	}
	var b strings.Builder
	b.WriteString(successStyle.Render(res.Message) + "\n")
	row := func(label, value string) {
		if value != "" {
			b.WriteString(labelStyle.Render(label) + value + "\n")
		}
	}
	row("Title", nameStyle.Render(res.Title))
	if res.PageID > 0 {
		row("Page ID", fmt.Sprint(res.PageID))
	}
	row("URL", res.PageURL)
	row("Meta title", res.SEO[seo.FieldMetaTitle])
	row("Meta description", res.SEO[seo.FieldMetaDescription])
	if res.Tokens > 0 {
		row("Tokens", fmt.Sprint(res.Tokens))
	}
	if len(res.SEO) > 0 {
		row("SEO score", fmt.Sprintf("%d/100", seo.Analyze(res.SEO).Score))
	}
	return strings.TrimRight(b.String(), "\n")
}
