package llm

import (
	"context"
	"strings"
	"time"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
)

// Completion is the text returned for one prompt.
type Completion struct {
	Text             string
	TokensUsed       int
	PromptTokens     int
	CompletionTokens int
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// Model selects the provider behind a Generator.
type Model int

const (
	ModelOpenAI Model = iota
	ModelClaude
	ModelGemini
)

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultClaudeModel = "claude-3-sonnet-20240229"
	DefaultGeminiModel = "gemini-pro"
)

func (m Model) String() string {
	switch m {
	case ModelOpenAI:
		return "openai"
	case ModelClaude:
		return "claude"
	case ModelGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// ParseModel resolves a model selector such as "openai".
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ModelOpenAI, nil
	case "claude", "anthropic":
		return ModelClaude, nil
	case "gemini":
		return ModelGemini, nil
	default:
		return 0, errs.Validation(errs.CodeInvalidModel, "Invalid AI model selected.", nil)
	}
}

// Config carries provider credentials and request settings.
type Config struct {
	OpenAIKey   string
	ClaudeKey   string
	GeminiKey   string
	OpenAIModel string
	ClaudeModel string
	GeminiModel string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	TellmURL    string

	// Endpoint overrides, used against local test servers.
	OpenAIBaseURL  string
	ClaudeURL      string
	GeminiEndpoint string
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 1000
	}
	return c.MaxTokens
}

// ModelName is the provider model identifier used for m.
func (c Config) ModelName(m Model) string {
	pick := func(name, fallback string) string {
		if name == "" {
			return fallback
		}
		return name
	}
	switch m {
	case ModelClaude:
		return pick(c.ClaudeModel, DefaultClaudeModel)
	case ModelGemini:
		return pick(c.GeminiModel, DefaultGeminiModel)
	default:
		return pick(c.OpenAIModel, DefaultOpenAIModel)
	}
}

// NewGenerator builds the generator for m. A missing API key is a
// configuration error. When a tellm URL is configured, every completion is
// also logged there.
func NewGenerator(m Model, cfg Config, log logger.Logger) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch m {
	case ModelOpenAI:
		gen, err = NewOpenAIGenerator(cfg, log)
	case ModelClaude:
		gen, err = NewAnthropicGenerator(cfg, log)
	case ModelGemini:
		gen, err = NewGeminiGenerator(cfg, log)
	default:
		return nil, errs.Validation(errs.CodeInvalidModel, "Invalid AI model selected.", nil)
	}
	if err != nil {
		return nil, err
	}
	if cfg.TellmURL != "" {
		gen = WithUsageLog(gen, cfg.TellmURL, cfg.ModelName(m), log)
	}
	return gen, nil
}
