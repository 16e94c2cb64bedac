package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/santiagomed/pagegen/blocks"
	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/seo"
)

const (
	defaultPrimaryColor   = "#667eea"
	defaultSecondaryColor = "#764ba2"
)

// Schema creates the tables PostgresStore reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS business_profiles (
	id SERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	business_name VARCHAR(255) NOT NULL,
	business_type VARCHAR(100) NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	logo_url VARCHAR(500) DEFAULT '',
	primary_color VARCHAR(7) DEFAULT '#667eea',
	secondary_color VARCHAR(7) DEFAULT '#764ba2',
	website_url VARCHAR(500) DEFAULT '',
	phone VARCHAR(50) DEFAULT '',
	email VARCHAR(100) DEFAULT '',
	address TEXT DEFAULT '',
	tagline VARCHAR(255) DEFAULT '',
	social_media TEXT DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS business_profiles_user_id ON business_profiles (user_id);

CREATE TABLE IF NOT EXISTS templates (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	type VARCHAR(50) NOT NULL,
	description TEXT DEFAULT '',
	preview_image VARCHAR(500) DEFAULT '',
	block_structure TEXT NOT NULL,
	seo_config TEXT DEFAULT '',
	created_by BIGINT NOT NULL DEFAULT 0,
	status VARCHAR(20) DEFAULT 'active',
	created_at TIMESTAMPTZ DEFAULT NOW(),
	updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS templates_type ON templates (type);
CREATE INDEX IF NOT EXISTS templates_status ON templates (status);

CREATE TABLE IF NOT EXISTS generated_pages (
	id SERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	business_profile_id INT NOT NULL,
	template_id INT NOT NULL,
	page_id BIGINT NOT NULL,
	generated_content TEXT NOT NULL,
	ai_model_used VARCHAR(50) DEFAULT '',
	seo_data TEXT DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS generated_pages_user_id ON generated_pages (user_id);
CREATE INDEX IF NOT EXISTS generated_pages_page_id ON generated_pages (page_id);
`

const (
	templateColumns = `id, name, type, description, preview_image, block_structure, seo_config, created_by, status, created_at`

	queryTemplate      = `SELECT ` + templateColumns + ` FROM templates WHERE id = $1 AND status = 'active'`
	queryTemplates     = `SELECT ` + templateColumns + ` FROM templates WHERE status = 'active' ORDER BY created_at DESC`
	queryTemplatesBy   = `SELECT ` + templateColumns + ` FROM templates WHERE status = 'active' AND type = $1 ORDER BY created_at DESC`
	insertTemplate     = `INSERT INTO templates (name, type, description, preview_image, block_structure, seo_config, created_by, status) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	updateTemplate     = `UPDATE templates SET name = $1, type = $2, description = $3, preview_image = $4, block_structure = $5, seo_config = $6, created_by = $7, status = $8, updated_at = NOW() WHERE id = $9`
	softDeleteTemplate = `UPDATE templates SET status = 'deleted', updated_at = NOW() WHERE id = $1`

	queryProfileID = `SELECT id FROM business_profiles WHERE user_id = $1 AND business_name = $2`
	insertProfile  = `INSERT INTO business_profiles (user_id, business_name, business_type, description, logo_url, primary_color, secondary_color, website_url, phone, email, address, tagline, social_media) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	updateProfile  = `UPDATE business_profiles SET user_id = $1, business_name = $2, business_type = $3, description = $4, logo_url = $5, primary_color = $6, secondary_color = $7, website_url = $8, phone = $9, email = $10, address = $11, tagline = $12, social_media = $13, updated_at = NOW() WHERE id = $14`
	queryProfile   = `SELECT user_id, business_name, business_type, description, logo_url, primary_color, secondary_color, website_url, phone, email, address, tagline, social_media FROM business_profiles WHERE id = $1`

	insertPage  = `INSERT INTO generated_pages (user_id, business_profile_id, template_id, page_id, generated_content, ai_model_used, seo_data) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	updatePage  = `UPDATE generated_pages SET generated_content = $1, seo_data = $2 WHERE page_id = $3`
	pageColumns = `gp.id, gp.user_id, gp.business_profile_id, gp.template_id, gp.page_id, gp.generated_content, gp.ai_model_used, gp.seo_data, gp.created_at, COALESCE(bp.business_name, ''), COALESCE(t.name, ''), COALESCE(t.type, '')`
	pageJoins   = ` FROM generated_pages gp LEFT JOIN business_profiles bp ON gp.business_profile_id = bp.id LEFT JOIN templates t ON gp.template_id = t.id`
	queryPage   = `SELECT ` + pageColumns + pageJoins + ` WHERE gp.page_id = $1 ORDER BY gp.created_at DESC LIMIT 1`
	queryPages  = `SELECT ` + pageColumns + pageJoins + ` WHERE gp.user_id = $1 ORDER BY gp.created_at DESC LIMIT $2`

	countUserProfiles    = `SELECT COUNT(*) FROM business_profiles WHERE user_id = $1`
	countUserPages       = `SELECT COUNT(*) FROM generated_pages WHERE user_id = $1`
	countActiveTemplates = `SELECT COUNT(*) FROM templates WHERE status = 'active'`
	countProfiles        = `SELECT COUNT(*) FROM business_profiles`
	countPages           = `SELECT COUNT(*) FROM generated_pages`
	countActiveUsers     = `SELECT COUNT(DISTINCT user_id) FROM business_profiles`
)

// PageRecord is one generated page as recorded after publishing.
type PageRecord struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	ProfileID    int64              `json:"business_profile_id"`
	TemplateID   int64              `json:"template_id"`
	PageID       int64              `json:"page_id"`
	Content      *content.Generated `json:"generated_content"`
	Model        string             `json:"ai_model_used"`
	SEO          seo.Fields         `json:"seo_data,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	BusinessName string             `json:"business_name,omitempty"`
	TemplateName string             `json:"template_name,omitempty"`
	TemplateType string             `json:"template_type,omitempty"`
}

type UserStats struct {
	BusinessProfiles   int64 `json:"business_profiles"`
	GeneratedPages     int64 `json:"generated_pages"`
	AvailableTemplates int64 `json:"available_templates"`
}

type GlobalStats struct {
	TotalProfiles int64 `json:"total_profiles"`
	TotalPages    int64 `json:"total_pages"`
	ActiveUsers   int64 `json:"active_users"`
}

// PostgresStore persists templates, business profiles and generated pages.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgres opens a PostgreSQL connection pool for dsn.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresStore{DB: db}, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Ping tests the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// Migrate creates any missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var (
		t            Template
		blockJSON    string
		seoJSON      sql.NullString
		description  sql.NullString
		previewImage sql.NullString
		status       sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &description, &previewImage, &blockJSON, &seoJSON, &t.CreatedBy, &status, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.PreviewImage = previewImage.String
	t.Status = status.String

	nodes, err := blocks.Parse([]byte(blockJSON))
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", t.ID, err)
	}
	t.Blocks = nodes
	if seoJSON.String != "" {
		if err := json.Unmarshal([]byte(seoJSON.String), &t.SEO); err != nil {
			return nil, fmt.Errorf("template %d seo_config: %w", t.ID, err)
		}
	}
	return &t, nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	t, err := scanTemplate(s.DB.QueryRowContext(ctx, queryTemplate, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, templateNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get template %d: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, pageType string) ([]*Template, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if pageType == "" {
		rows, err = s.DB.QueryContext(ctx, queryTemplates)
	} else {
		rows, err = s.DB.QueryContext(ctx, queryTemplatesBy, pageType)
	}
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, t *Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	blockJSON, err := blocks.Marshal(t.Blocks)
	if err != nil {
		return 0, err
	}
	seoJSON, err := json.Marshal(t.SEO)
	if err != nil {
		return 0, err
	}
	status := t.Status
	if status == "" {
		status = StatusActive
	}
	args := []interface{}{t.Name, t.Type, t.Description, t.PreviewImage, string(blockJSON), string(seoJSON), t.CreatedBy, status}

	if t.ID != 0 {
		if _, err := s.DB.ExecContext(ctx, updateTemplate, append(args, t.ID)...); err != nil {
			return 0, fmt.Errorf("update template %d: %w", t.ID, err)
		}
		return t.ID, nil
	}
	if err := s.DB.QueryRowContext(ctx, insertTemplate, args...).Scan(&t.ID); err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}
	return t.ID, nil
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, softDeleteTemplate, id)
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return templateNotFound()
	}
	return nil
}

// SaveProfile inserts p, or updates the row with the same user and business
// name, and returns the row ID.
func (s *PostgresStore) SaveProfile(ctx context.Context, p content.Profile) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	social, err := json.Marshal(p.SocialMedia)
	if err != nil {
		return 0, err
	}
	args := []interface{}{
		p.UserID, p.BusinessName, p.BusinessType, p.Description, p.LogoURL,
		orDefault(p.PrimaryColor, defaultPrimaryColor), orDefault(p.SecondaryColor, defaultSecondaryColor),
		p.WebsiteURL, p.Phone, p.Email, p.Address, p.Tagline, string(social),
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, queryProfileID, p.UserID, p.BusinessName).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := s.DB.QueryRowContext(ctx, insertProfile, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert profile: %w", err)
		}
		return id, nil
	case err != nil:
		return 0, fmt.Errorf("find profile: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, updateProfile, append(args, id)...); err != nil {
		return 0, fmt.Errorf("update profile %d: %w", id, err)
	}
	return id, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id int64) (content.Profile, error) {
	var (
		p      content.Profile
		social sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, queryProfile, id).Scan(
		&p.UserID, &p.BusinessName, &p.BusinessType, &p.Description, &p.LogoURL,
		&p.PrimaryColor, &p.SecondaryColor, &p.WebsiteURL, &p.Phone, &p.Email,
		&p.Address, &p.Tagline, &social,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, errs.NotFound(errs.CodeProfileNotFound, "Business profile not found.")
	}
	if err != nil {
		return p, fmt.Errorf("get profile %d: %w", id, err)
	}
	if social.String != "" && social.String != "null" {
		if err := json.Unmarshal([]byte(social.String), &p.SocialMedia); err != nil {
			return p, fmt.Errorf("profile %d social_media: %w", id, err)
		}
	}
	return p, nil
}

// RecordPage stores r and sets its ID.
func (s *PostgresStore) RecordPage(ctx context.Context, r *PageRecord) error {
	generated, err := json.Marshal(r.Content)
	if err != nil {
		return err
	}
	var seoData []byte
	if len(r.SEO) > 0 {
		if seoData, err = json.Marshal(r.SEO); err != nil {
			return err
		}
	}
	err = s.DB.QueryRowContext(ctx, insertPage,
		r.UserID, r.ProfileID, r.TemplateID, r.PageID, string(generated), r.Model, string(seoData),
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("record page %d: %w", r.PageID, err)
	}
	return nil
}

// UpdatePageContent replaces the generated content and SEO fields recorded
// for a published page.
func (s *PostgresStore) UpdatePageContent(ctx context.Context, pageID int64, generated *content.Generated, fields seo.Fields) error {
	data, err := json.Marshal(generated)
	if err != nil {
		return err
	}
	var seoData []byte
	if len(fields) > 0 {
		if seoData, err = json.Marshal(fields); err != nil {
			return err
		}
	}
	res, err := s.DB.ExecContext(ctx, updatePage, string(data), string(seoData), pageID)
	if err != nil {
		return fmt.Errorf("update page %d: %w", pageID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	return nil
}

func scanPage(row rowScanner) (*PageRecord, error) {
	var (
		r         PageRecord
		generated string
		model     sql.NullString
		seoData   sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.ProfileID, &r.TemplateID, &r.PageID, &generated, &model, &seoData,
		&r.CreatedAt, &r.BusinessName, &r.TemplateName, &r.TemplateType)
	if err != nil {
		return nil, err
	}
	r.Model = model.String
	r.Content = content.NewGenerated()
	if err := json.Unmarshal([]byte(generated), r.Content); err != nil {
		return nil, fmt.Errorf("page %d generated_content: %w", r.PageID, err)
	}
	if seoData.String != "" {
		if err := json.Unmarshal([]byte(seoData.String), &r.SEO); err != nil {
			return nil, fmt.Errorf("page %d seo_data: %w", r.PageID, err)
		}
	}
	return &r, nil
}

// GetPage returns the latest record for a published page.
func (s *PostgresStore) GetPage(ctx context.Context, pageID int64) (*PageRecord, error) {
	r, err := scanPage(s.DB.QueryRowContext(ctx, queryPage, pageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get page %d: %w", pageID, err)
	}
	return r, nil
}

// ListPages returns a user's most recent records, newest first.
func (s *PostgresStore) ListPages(ctx context.Context, userID int64, limit int) ([]*PageRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, queryPages, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []*PageRecord
	for rows.Next() {
		r, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) UserStats(ctx context.Context, userID int64) (UserStats, error) {
	var (
		st  UserStats
		err error
	)
	if st.BusinessProfiles, err = s.count(ctx, countUserProfiles, userID); err != nil {
		return st, err
	}
	if st.GeneratedPages, err = s.count(ctx, countUserPages, userID); err != nil {
		return st, err
	}
	if st.AvailableTemplates, err = s.count(ctx, countActiveTemplates); err != nil {
		return st, err
	}
	return st, nil
}

func (s *PostgresStore) GlobalStats(ctx context.Context) (GlobalStats, error) {
	var (
		st  GlobalStats
		err error
	)
	if st.TotalProfiles, err = s.count(ctx, countProfiles); err != nil {
		return st, err
	}
	if st.TotalPages, err = s.count(ctx, countPages); err != nil {
		return st, err
	}
	if st.ActiveUsers, err = s.count(ctx, countActiveUsers); err != nil {
		return st, err
	}
	return st, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
