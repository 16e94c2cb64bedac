// Package store loads and persists page templates and generation records.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/santiagomed/pagegen/blocks"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/seo"
)

const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Template is a stored block tree with its SEO mapping.
type Template struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Description  string         `json:"description"`
	PreviewImage string         `json:"preview_image"`
	Status       string         `json:"status"`
	CreatedBy    int64          `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
	SEO          seo.Mapping    `json:"seo_config"`
	Blocks       []*blocks.Node `json:"block_structure"`
}

// PageType is the slot set this template is generated with.
func (t *Template) PageType() llm.PageType {
	return llm.ParsePageType(t.Type)
}

// Validate checks the fields a template needs before it is saved.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.Validation(errs.CodeTemplateValidationFailed, "Template name is required.", nil)
	}
	if strings.TrimSpace(t.Type) == "" {
		return errs.Validation(errs.CodeInvalidPageType, "Template type is required.", nil)
	}
	return nil
}

func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	var raw struct {
		plain
		Blocks json.RawMessage `json:"block_structure"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Validation(errs.CodeTemplateValidationFailed, "Template is not valid JSON.", err)
	}
	*t = Template(raw.plain)

	t.Blocks = []*blocks.Node{}
	if len(raw.Blocks) > 0 && string(raw.Blocks) != "null" {
		nodes, err := blocks.Parse(raw.Blocks)
		if err != nil {
			return err
		}
		t.Blocks = nodes
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	return nil
}

// TemplateStore loads templates by ID. A missing or deleted template is a
// not-found error.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id int64) (*Template, error)
}

// Repository is a TemplateStore that can also list and modify templates.
type Repository interface {
	TemplateStore
	ListTemplates(ctx context.Context, pageType string) ([]*Template, error)
	SaveTemplate(ctx context.Context, t *Template) (int64, error)
	DeleteTemplate(ctx context.Context, id int64) error
}

func templateNotFound() error {
	return errs.NotFound(errs.CodeTemplateNotFound, "Template not found.")
}

// Install saves each template unless the repository already holds an active
// template with the same name and type. It returns the names it saved.
func Install(ctx context.Context, repo Repository, templates []*Template) ([]string, error) {
	var installed []string
	for _, t := range templates {
		existing, err := repo.ListTemplates(ctx, t.Type)
		if err != nil {
			return installed, err
		}
		if containsName(existing, t.Name) {
			continue
		}

		copied := *t
		copied.ID = 0
		if _, err := repo.SaveTemplate(ctx, &copied); err != nil {
			return installed, err
		}
		installed = append(installed, t.Name)
	}
	return installed, nil
}

func containsName(templates []*Template, name string) bool {
	for _, t := range templates {
		if t.Name == name {
			return true
		}
	}
	return false
}
