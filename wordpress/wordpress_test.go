package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/pagegen/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, "admin", "app-pass", nil)
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresSettings(t *testing.T) {
	_, err := NewClient("", "admin", "pass", nil)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
	_, err = NewClient("https://example.com", "", "pass", nil)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestCreatePage(t *testing.T) {
	var got PageInput
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/pages", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "app-pass", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":42,"status":"draft","link":"https://example.com/?page_id=42"}`)
	})

	id, err := client.CreatePage(context.Background(), PageInput{
		Title:   "Acme Bakery",
		Content: "<!-- wp:paragraph /-->",
		Status:  "draft",
		Meta:    map[string]string{"_gsba_generated": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "Acme Bakery", got.Title)
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, "1", got.Meta["_gsba_generated"])
}

func TestCreatePageAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":"rest_cannot_create","message":"Sorry, you are not allowed to create posts as this user."}`)
	})

	_, err := client.CreatePage(context.Background(), PageInput{Title: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindUpstream))
	assert.Contains(t, err.Error(), "rest_cannot_create")
}

func TestUpdateAndGetPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/wp-json/wp/v2/pages/42" && r.Method == http.MethodPost:
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "new content", body["content"])
			assert.NotContains(t, body, "title")
			io.WriteString(w, `{"id":42}`)
		case r.URL.Path == "/wp-json/wp/v2/pages/42":
			io.WriteString(w, `{"id":42,"status":"publish","link":"https://example.com/acme","title":{"rendered":"Acme"},"content":{"rendered":"<h1>Hi</h1>"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"code":"rest_post_invalid_id","message":"Invalid post ID."}`)
		}
	})
	ctx := context.Background()

	require.NoError(t, client.UpdatePage(ctx, 42, PageInput{Content: "new content"}))
	assert.True(t, errs.IsKind(client.UpdatePage(ctx, 7, PageInput{Content: "x"}), errs.KindNotFound))

	page, err := client.GetPage(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Acme", page.Title)
	assert.Equal(t, "<h1>Hi</h1>", page.Content)
	assert.Equal(t, "https://example.com/acme", client.PageURL(ctx, 42))

	_, err = client.GetPage(ctx, 7)
	assert.Equal(t, errs.CodePageNotFound, errs.CodeOf(err))
	assert.Equal(t, "", client.PageURL(ctx, 7))
}

func TestSetFeaturedImage(t *testing.T) {
	var featured float64
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/logo.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("\x89PNG fake"))
		case "/wp-json/wp/v2/media":
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			assert.Equal(t, `attachment; filename="logo.png"`, r.Header.Get("Content-Disposition"))
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":9}`)
		case "/wp-json/wp/v2/pages/42":
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			featured, _ = body["featured_media"].(float64)
			io.WriteString(w, `{"id":42}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.SetFeaturedImage(context.Background(), 42, server.URL+"/images/logo.png"))
	assert.Equal(t, float64(9), featured)

	assert.Error(t, client.SetFeaturedImage(context.Background(), 42, server.URL+"/images/missing.png"))
}

func TestParseOutline(t *testing.T) {
	html := `<div class="hero"><h1>Acme  Bakery</h1><p>Fresh bread every morning.</p>
<script>var x = 1;</script>
<h2>Our <em>Features</em></h2><ul><li>Sourdough</li><li>Croissants</li></ul>
<a href="#top">top</a><a href="https://acme.test/contact">Contact</a><img src="https://acme.test/logo.png"></div>`

	o, err := ParseOutline(html)
	require.NoError(t, err)
	assert.Equal(t, []Heading{{Level: 1, Text: "Acme Bakery"}, {Level: 2, Text: "Our Features"}}, o.Headings)
	assert.Equal(t, []string{"https://acme.test/contact"}, o.Links)
	assert.Equal(t, []string{"https://acme.test/logo.png"}, o.Images)
	assert.Equal(t, "Fresh bread every morning. Sourdough Croissants", o.Excerpt)
	assert.Equal(t, 6, o.Words)
}
