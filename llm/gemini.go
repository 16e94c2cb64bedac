package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
	"google.golang.org/api/option"
)

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	config Config
	logger logger.Logger
}

func NewGeminiGenerator(cfg Config, log logger.Logger) (*GeminiGenerator, error) {
	if cfg.GeminiKey == "" {
		return nil, errs.Configuration(errs.CodeMissingAPIKey, "Gemini API key not configured.")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.GeminiKey)}
	if cfg.GeminiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.GeminiEndpoint))
	}
	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, errs.Upstream(errs.CodeUpstreamRequestFailed, "Gemini client could not be created.", err)
	}
	return &GeminiGenerator{client: client, config: cfg, logger: log}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.timeout())
	defer cancel()

	model := g.client.GenerativeModel(g.config.ModelName(ModelGemini))
	model.SetMaxOutputTokens(int32(g.config.maxTokens()))
	model.SetTemperature(g.config.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "Gemini request failed.", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from Gemini.", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from Gemini.", nil)
	}

	c := Completion{Text: text}
	if resp.UsageMetadata != nil {
		c.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
		c.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		c.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return c, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
