package core

import (
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/seo"
)

// Result is the caller-facing outcome of a generation request.
type Result struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Kind    string     `json:"kind,omitempty"`
	Code    errs.Code  `json:"code,omitempty"`
	PageID  int64      `json:"page_id,omitempty"`
	PageURL string     `json:"page_url,omitempty"`
	Title   string     `json:"title,omitempty"`
	SEO     seo.Fields `json:"seo,omitempty"`
	Markup  string     `json:"markup,omitempty"`
	Tokens  int        `json:"tokens,omitempty"`
}

// NewResult turns a pipeline output and its error into a Result. out may be
// nil or partially filled when err is set.
func NewResult(out *Output, err error) Result {
	if err != nil {
		res := Result{Message: errs.Message(err), Kind: "internal", Code: errs.CodeOf(err)}
		if kind, ok := errs.KindOf(err); ok {
			res.Kind = kind.String()
		}
		return res
	}
	if out == nil {
		return Result{Message: "Nothing was generated.", Kind: "internal"}
	}
	msg := "Page generated successfully!"
	if out.Request != nil {
		switch out.Request.Mode {
		case ModeUpdate:
			msg = "Page updated successfully!"
		case ModePreview:
			msg = "Preview generated successfully!"
		}
	}
	return Result{
		Success: true,
		Message: msg,
		PageID:  out.PageID,
		PageURL: out.PageURL,
		Title:   out.Title,
		SEO:     out.SEO,
		Markup:  out.Markup,
		Tokens:  out.Tokens,
	}
}
