package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator generates text with the chat completions API.
type OpenAIGenerator struct {
	openAIClient *openai.Client
	config       Config
	logger       logger.Logger
}

func NewOpenAIGenerator(cfg Config, log logger.Logger) (*OpenAIGenerator, error) {
	if cfg.OpenAIKey == "" {
		return nil, errs.Configuration(errs.CodeMissingAPIKey, "OpenAI API key not configured.")
	}
	oc := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAIGenerator{
		openAIClient: openai.NewClientWithConfig(oc),
		config:       cfg,
		logger:       log,
	}, nil
}

func (c *OpenAIGenerator) Generate(ctx context.Context, prompt string) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout())
	defer cancel()

	resp, err := c.openAIClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ModelName(ModelOpenAI),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.config.maxTokens(),
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "OpenAI request failed.", describeOpenAIError(err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from OpenAI.", nil)
	}

	return Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensUsed:       resp.Usage.TotalTokens,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func describeOpenAIError(err error) error {
	e := &openai.APIError{}
	if !errors.As(err, &e) {
		return err
	}
	switch e.HTTPStatusCode {
	case 401:
		return fmt.Errorf("unauthorized: invalid OpenAI API key")
	case 429:
		return fmt.Errorf("rate limited by OpenAI API")
	case 500:
		return fmt.Errorf("OpenAI server error")
	default:
		return fmt.Errorf("OpenAI API error: %v", e)
	}
}
