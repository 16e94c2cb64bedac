package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/logger"
)

// stepError is delivered to the UI when a pipeline step fails.
type stepError struct {
	step core.StepType
	err  error
}

func (e stepError) Error() string { return e.step.String() + ": " + e.err.Error() }

func (e stepError) Unwrap() error { return e.err }

// CliStepPublisher forwards pipeline progress to the terminal UI. Steps and
// errors share one channel so the UI sees them in the order they happened.
// Publishing never blocks the pipeline; updates are dropped when the buffer
// is full.
type CliStepPublisher struct {
	events chan tea.Msg
	logger logger.Logger
}

func NewCliStepPublisher(log logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		events: make(chan tea.Msg, 100),
		logger: log,
	}
}

func (p *CliStepPublisher) PublishStep(step core.StepType) {
	p.send(step, step)
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	p.send(step, stepError{step: step, err: err})
}

func (p *CliStepPublisher) send(step core.StepType, msg tea.Msg) {
	select {
	case p.events <- msg:
	default:
		p.logger.WithField("step", step.String()).Warn("Progress update dropped, channel full")
	}
}

// next blocks until the next progress update.
func (p *CliStepPublisher) next() tea.Msg {
	return <-p.events
}
