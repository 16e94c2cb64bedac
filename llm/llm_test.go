package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	prompts []string
	failAt  int
	reply   func(n int) string
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (Completion, error) {
	s.prompts = append(s.prompts, prompt)
	n := len(s.prompts)
	if n == s.failAt {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from OpenAI.", nil)
	}
	text := "text"
	if s.reply != nil {
		text = s.reply(n)
	}
	return Completion{Text: text, TokensUsed: 10}, nil
}

func TestParseModel(t *testing.T) {
	for in, want := range map[string]Model{"openai": ModelOpenAI, "Claude": ModelClaude, " gemini ": ModelGemini} {
		m, err := ParseModel(in)
		require.NoError(t, err)
		assert.Equal(t, want, m)
	}

	_, err := ParseModel("llama")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	assert.Equal(t, "Invalid AI model selected.", errs.Message(err))
}

func TestNewGeneratorMissingKey(t *testing.T) {
	cases := map[Model]string{
		ModelOpenAI: "OpenAI API key not configured.",
		ModelClaude: "Claude API key not configured.",
		ModelGemini: "Gemini API key not configured.",
	}
	for model, msg := range cases {
		_, err := NewGenerator(model, Config{}, logger.NewNullLogger())
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindConfiguration), model.String())
		assert.Equal(t, msg, errs.Message(err))
	}
}

func TestSlotsPerPageType(t *testing.T) {
	assert.Len(t, Slots(PageLanding), 11)
	assert.Len(t, Slots(PageAbout), 7)
	assert.Len(t, Slots(PagePricing), 8)
	assert.Equal(t, []string{"content"}, Slots(PageGeneric))
	assert.Equal(t, PageGeneric, ParsePageType("services"))
	assert.Equal(t, PagePricing, ParsePageType("Pricing"))
}

func TestBuildPrompt(t *testing.T) {
	d := PromptData{BusinessName: "Acme", BusinessType: "bakery", Address: "12 Main St, Springfield"}
	got := BuildPrompt("{business_name} ({business_type}) near {location}{tagline}", d)
	assert.Equal(t, "Acme (bakery) near Springfield"+styleInstruction, got)

	d.Address = "Springfield"
	got = BuildPrompt("near {location}.", d)
	assert.True(t, strings.HasPrefix(got, "near .\n\nIMPORTANT:"))
}

func TestGenerateContentLanding(t *testing.T) {
	gen := &scriptedGenerator{reply: func(n int) string {
		if n >= 5 && n <= 7 {
			return "Fast Service\nWe deliver quickly."
		}
		return "slot text"
	}}
	profile := content.Profile{BusinessName: "Acme", BusinessType: "technology", Phone: "555"}

	g, tokens, err := GenerateContent(context.Background(), gen, PageLanding, profile, DefaultBranding, logger.NewNullLogger())
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 11)
	assert.Equal(t, 110, tokens)

	f, ok := g.Get("feature_2")
	require.True(t, ok)
	require.True(t, f.IsFeature())
	assert.Equal(t, "Fast Service", f.Feature.Title)

	icon, _ := g.Get("feature_1_icon")
	assert.Equal(t, "💻", icon.Text)
	color, _ := g.Get("primary_color")
	assert.Equal(t, "#667eea", color.Text)
	phone, _ := g.Get("phone")
	assert.Equal(t, "555", phone.Text)

	keys := g.Keys()
	assert.Equal(t, "hero_headline", keys[0])
	assert.Equal(t, "feature_3_icon", keys[len(keys)-1])
}

func TestGenerateContentAboutHasNoLandingExtras(t *testing.T) {
	gen := &scriptedGenerator{}
	g, _, err := GenerateContent(context.Background(), gen, PageAbout, content.Profile{BusinessName: "Acme", PrimaryColor: "#000000"}, DefaultBranding, logger.NewNullLogger())
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 7)

	_, ok := g.Get("hero_image_url")
	assert.False(t, ok)
	color, _ := g.Get("primary_color")
	assert.Equal(t, "#000000", color.Text)
}

func TestGenerateContentFailsFast(t *testing.T) {
	gen := &scriptedGenerator{failAt: 3}
	g, tokens, err := GenerateContent(context.Background(), gen, PageLanding, content.Profile{BusinessName: "Acme"}, DefaultBranding, logger.NewNullLogger())
	require.Error(t, err)
	assert.Nil(t, g)
	assert.Equal(t, 0, tokens)
	assert.Len(t, gen.prompts, 3)
	assert.True(t, errs.IsKind(err, errs.KindUpstream))
	assert.Contains(t, err.Error(), "slot hero_cta_text")
}

func TestGenerateContentStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &scriptedGenerator{}
	_, _, err := GenerateContent(ctx, gen, PageLanding, content.Profile{BusinessName: "Acme"}, DefaultBranding, logger.NewNullLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.prompts)
}

func TestFeatureIcon(t *testing.T) {
	assert.Equal(t, "⚖️", FeatureIcon(1, "law_firm"))
	assert.Equal(t, "💼", FeatureIcon(2, "bakery"))
	assert.Equal(t, "⭐", FeatureIcon(9, "bakery"))
}

func TestOpenAIGenerator(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Build Faster \n"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":3,"total_tokens":8}}`)
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(Config{OpenAIKey: "test-key", OpenAIBaseURL: server.URL + "/v1", MaxTokens: 500, Temperature: 0.7}, logger.NewNullLogger())
	require.NoError(t, err)

	c, err := gen.Generate(context.Background(), "headline please")
	require.NoError(t, err)
	assert.Equal(t, "Build Faster", c.Text)
	assert.Equal(t, 8, c.TokensUsed)
	assert.Equal(t, "gpt-3.5-turbo", body["model"])
	assert.EqualValues(t, 500, body["max_tokens"])
}

func TestOpenAIGeneratorErrors(t *testing.T) {
	status := http.StatusUnauthorized
	reply := `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(Config{OpenAIKey: "bad", OpenAIBaseURL: server.URL + "/v1"}, logger.NewNullLogger())
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindUpstream))
	assert.Contains(t, err.Error(), "unauthorized")

	status = http.StatusOK
	reply = `{"id":"c1","object":"chat.completion","choices":[]}`
	_, err = gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, errs.CodeUpstreamInvalidResponse, errs.CodeOf(err))
	assert.Equal(t, "Invalid response from OpenAI.", errs.Message(err))
}

func TestAnthropicGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "claude-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		var req AnthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultClaudeModel, req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		if req.Messages[0].Content == "fail" {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
			return
		}
		io.WriteString(w, `{"content":[{"type":"text","text":"Hello"}],"usage":{"input_tokens":4,"output_tokens":2}}`)
	}))
	defer server.Close()

	gen, err := NewAnthropicGenerator(Config{ClaudeKey: "claude-key", ClaudeURL: server.URL}, logger.NewNullLogger())
	require.NoError(t, err)

	c, err := gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, Completion{Text: "Hello", TokensUsed: 2, PromptTokens: 4, CompletionTokens: 2}, c)

	_, err = gen.Generate(context.Background(), "fail")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindUpstream))
	assert.Contains(t, err.Error(), "rate_limit_error - slow down")
}

func TestAnthropicGeneratorEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[]}`)
	}))
	defer server.Close()

	gen, err := NewAnthropicGenerator(Config{ClaudeKey: "k", ClaudeURL: server.URL}, logger.NewNullLogger())
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "hi")
	assert.Equal(t, "Invalid response from Claude.", errs.Message(err))
}

func TestUsageLogPassesErrorsThrough(t *testing.T) {
	inner := &scriptedGenerator{failAt: 1}
	gen := WithUsageLog(inner, "http://127.0.0.1:0", "gpt-3.5-turbo", logger.NewNullLogger())
	_, err := gen.Generate(context.Background(), "p")
	var e *errs.Error
	assert.True(t, errors.As(err, &e))
}

func TestBatchID(t *testing.T) {
	id := NewBatchID()
	assert.Len(t, id, 24)
	assert.Equal(t, id, EnsureBatchID(id))
	assert.NotEqual(t, "nope", EnsureBatchID("nope"))
	assert.Equal(t, id, batchFrom(WithBatch(context.Background(), id)))
}

func TestGeminiGenerator(t *testing.T) {
	var replies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		if len(replies) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, replies[0])
		replies = replies[1:]
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(Config{GeminiKey: "gemini-key", GeminiModel: "gemini-test", GeminiEndpoint: server.URL}, logger.NewNullLogger())
	require.NoError(t, err)
	defer gen.Close()

	replies = []string{`{"candidates":[{"content":{"parts":[{"text":" Fresh bread daily "}],"role":"model"},"finishReason":1}],` +
		`"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":4,"totalTokenCount":7}}`}
	c, err := gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, Completion{Text: "Fresh bread daily", TokensUsed: 7, PromptTokens: 3, CompletionTokens: 4}, c)

	_, err = gen.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindUpstream))
	assert.Equal(t, errs.CodeUpstreamRequestFailed, errs.CodeOf(err))
}

func TestGeminiGeneratorInvalidResponse(t *testing.T) {
	for name, body := range map[string]string{
		"no candidates": `{"candidates":[]}`,
		"blank text":    `{"candidates":[{"content":{"parts":[{"text":"  "}],"role":"model"},"finishReason":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, body)
			}))
			defer server.Close()

			gen, err := NewGeminiGenerator(Config{GeminiKey: "gemini-key", GeminiEndpoint: server.URL}, logger.NewNullLogger())
			require.NoError(t, err)
			defer gen.Close()

			_, err = gen.Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.Equal(t, errs.CodeUpstreamInvalidResponse, errs.CodeOf(err))
			assert.Equal(t, "Invalid response from Gemini.", errs.Message(err))
		})
	}
}

func TestGeminiLive(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY is not set, skipping test")
	}
	gen, err := NewGeminiGenerator(Config{GeminiKey: os.Getenv("GEMINI_API_KEY"), GeminiModel: "gemini-1.5-flash"}, logger.NewNullLogger())
	require.NoError(t, err)
	defer gen.Close()

	c, err := gen.Generate(context.Background(), BuildPrompt(Prompts(PageLanding)[0].Template, PromptData{BusinessName: "Acme", BusinessType: "bakery"}))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Text)
}
