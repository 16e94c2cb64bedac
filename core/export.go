package core

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/fs"
	"github.com/santiagomed/pagegen/wordpress"
)

// ExportData is everything needed to recreate a generated page elsewhere.
type ExportData struct {
	ExportDate   string             `json:"export_date"`
	PageTitle    string             `json:"page_title"`
	PageURL      string             `json:"page_url"`
	BusinessData content.Profile    `json:"business_data"`
	AIContent    *content.Generated `json:"ai_content"`
	Template     ExportTemplate     `json:"template"`
	Markup       string             `json:"content,omitempty"`
}

type ExportTemplate struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Export collects the stored data of page pageID. The page title and URL
// come from the document store when it can read pages back.
func (s *Service) Export(ctx context.Context, pageID int64) (*ExportData, error) {
	if s.opts.Pages == nil {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "Page history not configured.")
	}
	record, err := s.opts.Pages.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	profile, err := s.opts.Pages.GetProfile(ctx, record.ProfileID)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if s.opts.Now != nil {
		now = s.opts.Now
	}
	data := &ExportData{
		ExportDate:   now().Format("2006-01-02 15:04:05"),
		PageTitle:    PageTitle(profile, record.TemplateType),
		BusinessData: profile,
		AIContent:    record.Content,
		Template:     ExportTemplate{Name: record.TemplateName, Type: record.TemplateType},
	}
	if getter, ok := s.opts.Documents.(PageGetter); ok {
		page, err := getter.GetPage(ctx, pageID)
		if err != nil {
			s.logger.WithField("error", err).Warn("Could not read page from WordPress")
		} else {
			data.PageTitle = page.Title
			data.PageURL = page.Link
			data.Markup = page.Content
		}
	}
	return data, nil
}

// WriteExport stores data as <dir>/page-<id>.json on fsys.
func WriteExport(fsys *fs.FileSystem, dir string, pageID int64, data *ExportData) (string, error) {
	name := path.Join(dir, fmt.Sprintf("page-%d.json", pageID))
	if err := fsys.WriteJSON(name, data); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return name, nil
}

// WriteExportZip writes a zip holding the export JSON and, when known, the
// page markup and its outline.
func WriteExportZip(w io.Writer, pageID int64, data *ExportData) error {
	mem := fs.NewMemoryFileSystem()
	root := fmt.Sprintf("page-%d", pageID)
	if _, err := WriteExport(mem, root, pageID, data); err != nil {
		return err
	}
	if data.Markup != "" {
		if err := mem.WriteFile(path.Join(root, "content.html"), []byte(data.Markup)); err != nil {
			return err
		}
		outline, err := wordpress.ParseOutline(data.Markup)
		if err == nil {
			if err := mem.WriteJSON(path.Join(root, "outline.json"), outline); err != nil {
				return err
			}
		}
	}
	return mem.WriteToZip(w, root)
}
