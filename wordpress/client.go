// Package wordpress publishes generated pages through the WordPress REST API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
)

// PageInput is the page a Client creates or updates. Empty fields are left
// unchanged on update.
type PageInput struct {
	Title         string            `json:"title,omitempty"`
	Content       string            `json:"content,omitempty"`
	Status        string            `json:"status,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	FeaturedMedia int64             `json:"featured_media,omitempty"`
}

// Page is a page as returned by WordPress.
type Page struct {
	ID      int64
	Title   string
	Content string
	Status  string
	Link    string
}

type restPage struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Link   string `json:"link"`
	Title  struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to one WordPress site using an application password.
type Client struct {
	siteURL     string
	username    string
	appPassword string
	httpClient  *http.Client
	logger      logger.Logger
}

func NewClient(siteURL, username, appPassword string, log logger.Logger) (*Client, error) {
	if siteURL == "" {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "WordPress site URL not configured.")
	}
	if username == "" || appPassword == "" {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "WordPress credentials not configured.")
	}
	if _, err := url.Parse(siteURL); err != nil {
		return nil, errs.Configuration(errs.CodeInvalidConfig, "WordPress site URL is invalid.")
	}
	if !strings.HasSuffix(siteURL, "/") {
		siteURL += "/"
	}
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Client{
		siteURL:     siteURL,
		username:    username,
		appPassword: appPassword,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      log,
	}, nil
}

func (c *Client) endpoint(parts ...string) string {
	return c.siteURL + "wp-json/wp/v2/" + strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.Upstream(errs.CodeUpstreamRequestFailed, "WordPress request failed.", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errs.Upstream(errs.CodeUpstreamRequestFailed, "WordPress request failed.", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr restError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			err = fmt.Errorf("wordpress API error: %s - %s", apiErr.Code, apiErr.Message)
		} else {
			err = fmt.Errorf("wordpress API error: HTTP %d", resp.StatusCode)
		}
		return resp.StatusCode, errs.Upstream(errs.CodeUpstreamRequestFailed, "WordPress request failed.", err)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from WordPress.", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) sendJSON(ctx context.Context, endpoint string, v interface{}, out interface{}) (int, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to create request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), "application/json", out)
}

// Ping checks that the site is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.endpoint("pages")+"?per_page=1", nil, "", nil)
	return err
}

// CreatePage creates a page and returns its ID.
func (c *Client) CreatePage(ctx context.Context, in PageInput) (int64, error) {
	var created restPage
	if _, err := c.sendJSON(ctx, c.endpoint("pages"), in, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from WordPress.", nil)
	}
	c.logger.WithField("page_id", created.ID).Info("Created WordPress page")
	return created.ID, nil
}

// UpdatePage updates an existing page.
func (c *Client) UpdatePage(ctx context.Context, id int64, in PageInput) error {
	status, err := c.sendJSON(ctx, c.endpoint("pages", fmt.Sprint(id)), in, nil)
	if status == http.StatusNotFound {
		return errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	if err != nil {
		return err
	}
	c.logger.WithField("page_id", id).Info("Updated WordPress page")
	return nil
}

// GetPage fetches a page with its rendered title and content.
func (c *Client) GetPage(ctx context.Context, id int64) (*Page, error) {
	var p restPage
	status, err := c.do(ctx, http.MethodGet, c.endpoint("pages", fmt.Sprint(id)), nil, "", &p)
	if status == http.StatusNotFound {
		return nil, errs.NotFound(errs.CodePageNotFound, "Page not found.")
	}
	if err != nil {
		return nil, err
	}
	return &Page{
		ID:      p.ID,
		Title:   p.Title.Rendered,
		Content: p.Content.Rendered,
		Status:  p.Status,
		Link:    p.Link,
	}, nil
}

// UploadMedia downloads imageURL and adds it to the media library.
func (c *Client) UploadMedia(ctx context.Context, imageURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", imageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download %s: HTTP %d", imageURL, resp.StatusCode)
	}
	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", imageURL, err)
	}

	name := "logo"
	if u, err := url.Parse(imageURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("media"), bytes.NewReader(image))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.username, c.appPassword)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	mediaResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, errs.Upstream(errs.CodeUpstreamRequestFailed, "WordPress request failed.", err)
	}
	defer mediaResp.Body.Close()
	if mediaResp.StatusCode != http.StatusCreated && mediaResp.StatusCode != http.StatusOK {
		return 0, errs.Upstream(errs.CodeUpstreamRequestFailed, "WordPress request failed.",
			fmt.Errorf("media upload: HTTP %d", mediaResp.StatusCode))
	}
	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(mediaResp.Body).Decode(&media); err != nil || media.ID == 0 {
		return 0, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from WordPress.", err)
	}
	return media.ID, nil
}

// SetFeaturedImage uploads imageURL and makes it the page's featured image.
func (c *Client) SetFeaturedImage(ctx context.Context, pageID int64, imageURL string) error {
	mediaID, err := c.UploadMedia(ctx, imageURL)
	if err != nil {
		return err
	}
	return c.UpdatePage(ctx, pageID, PageInput{FeaturedMedia: mediaID})
}

// PageURL returns the public link for a page ID, or "" when it cannot be fetched.
func (c *Client) PageURL(ctx context.Context, id int64) string {
	p, err := c.GetPage(ctx, id)
	if err != nil {
		c.logger.WithField("error", err).Warn("Could not fetch page link")
		return ""
	}
	return p.Link
}
