package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
)

// GenerateRequest is the body of the generate and preview endpoints.
type GenerateRequest struct {
	TemplateID   int64           `json:"template_id"`
	BusinessData json.RawMessage `json:"business_data"`
	Model        string          `json:"ai_model,omitempty"`
}

// UpdateRequest re-renders a page from content generated earlier. Business
// data and template ID default to the ones recorded for the page.
type UpdateRequest struct {
	TemplateID       int64              `json:"template_id,omitempty"`
	BusinessData     json.RawMessage    `json:"business_data,omitempty"`
	GeneratedContent *content.Generated `json:"generated_content"`
}

type DuplicateRequest struct {
	BusinessData json.RawMessage `json:"business_data"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, false)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, true)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, preview bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondResult(w, nil, errs.Validation(errs.CodeInvalidRequest, "Request body is not valid JSON.", err))
		return
	}
	profile, err := content.DecodeProfile(req.BusinessData)
	if err != nil {
		s.respondResult(w, nil, err)
		return
	}
	model := s.opts.DefaultModel
	if req.Model != "" {
		if model, err = llm.ParseModel(req.Model); err != nil {
			s.respondResult(w, nil, err)
			return
		}
	}

	var out *core.Output
	if preview {
		out, err = s.opts.Service.Preview(r.Context(), req.TemplateID, profile, model, nil)
	} else {
		out, err = s.opts.Service.Generate(r.Context(), req.TemplateID, profile, model, nil)
	}
	s.respondResult(w, out, err)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := s.pageID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondResult(w, nil, errs.Validation(errs.CodeInvalidRequest, "Request body is not valid JSON.", err))
		return
	}
	// without business data the profile stored with the page is used
	var profile content.Profile
	if len(req.BusinessData) > 0 && string(req.BusinessData) != "null" {
		var err error
		if profile, err = content.DecodeProfile(req.BusinessData); err != nil {
			s.respondResult(w, nil, err)
			return
		}
	}
	out, err := s.opts.Service.Update(r.Context(), pageID, req.TemplateID, req.GeneratedContent, profile)
	s.respondResult(w, out, err)
}

func (s *Server) handleDuplicatePage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := s.pageID(w, r)
	if !ok {
		return
	}
	var req DuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondResult(w, nil, errs.Validation(errs.CodeInvalidRequest, "Request body is not valid JSON.", err))
		return
	}
	profile, err := content.DecodeProfile(req.BusinessData)
	if err != nil {
		s.respondResult(w, nil, err)
		return
	}
	out, err := s.opts.Service.Duplicate(r.Context(), pageID, profile)
	s.respondResult(w, out, err)
}

func (s *Server) handleExportPage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := s.pageID(w, r)
	if !ok {
		return
	}
	data, err := s.opts.Service.Export(r.Context(), pageID)
	if err != nil {
		s.respondResult(w, nil, err)
		return
	}
	if r.URL.Query().Get("format") == "zip" {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="page-%d.zip"`, pageID))
		if err := core.WriteExportZip(w, pageID, data); err != nil {
			s.log.WithField("error", err).Error("Failed to write export zip")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, data)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if s.opts.Templates == nil {
		s.respondError(w, http.StatusNotImplemented, "Template listing not configured.")
		return
	}
	templates, err := s.opts.Templates.ListTemplates(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		s.log.WithField("error", err).Error("Failed to list templates")
		s.respondError(w, http.StatusInternalServerError, "Failed to list templates.")
		return
	}
	s.respondJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid template ID.")
		return
	}
	t, err := s.opts.Service.Templates().GetTemplate(r.Context(), id)
	if err != nil {
		s.respondResult(w, nil, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Stats == nil {
		s.respondError(w, http.StatusNotImplemented, "Statistics not configured.")
		return
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid user ID.")
			return
		}
		stats, err := s.opts.Stats.UserStats(r.Context(), userID)
		if err != nil {
			s.respondResult(w, nil, err)
			return
		}
		s.respondJSON(w, http.StatusOK, stats)
		return
	}
	stats, err := s.opts.Stats.GlobalStats(r.Context())
	if err != nil {
		s.respondResult(w, nil, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) pageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid page ID.")
		return 0, false
	}
	return id, true
}

// respondResult writes a core.Result with a status derived from the error
// kind.
func (s *Server) respondResult(w http.ResponseWriter, out *core.Output, err error) {
	if err != nil {
		s.log.WithField("error", err).Warn("Request failed")
	}
	s.respondJSON(w, statusFor(err), core.NewResult(out, err))
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	kind, ok := errs.KindOf(err)
	switch {
	case !ok && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case !ok:
		return http.StatusInternalServerError
	case kind == errs.KindValidation:
		return http.StatusBadRequest
	case kind == errs.KindNotFound:
		return http.StatusNotFound
	case kind == errs.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithField("error", err).Error("Failed to encode JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
