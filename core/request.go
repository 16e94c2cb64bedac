package core

import (
	"github.com/google/uuid"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/llm"
)

// Mode selects what a pipeline does with the rendered page.
type Mode int

const (
	// ModeCreate publishes a new page.
	ModeCreate Mode = iota
	// ModeUpdate replaces the content of an existing page.
	ModeUpdate
	// ModePreview renders without publishing or recording.
	ModePreview
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	case ModePreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Request is one page generation.
type Request struct {
	ID         string
	BatchID    string
	Mode       Mode
	TemplateID int64
	Profile    content.Profile
	Model      llm.Model

	// PageID is the page to update in ModeUpdate.
	PageID int64
	// Generated, when set, is used instead of calling the content generator.
	Generated *content.Generated
}

// NewRequest returns a create request for templateID with a fresh ID.
func NewRequest(templateID int64, profile content.Profile, model llm.Model) *Request {
	return &Request{
		ID:         uuid.NewString(),
		BatchID:    llm.NewBatchID(),
		Mode:       ModeCreate,
		TemplateID: templateID,
		Profile:    profile,
		Model:      model,
	}
}
