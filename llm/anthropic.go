package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/logger"
)

const anthropicURL = "https://api.anthropic.com/v1/messages"

type AnthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
	ID         string `json:"id"`
	Model      string `json:"model"`
	Role       string `json:"role"`
	StopReason string `json:"stop_reason"`
	Type       string `json:"type"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type AnthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type AnthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicGenerator generates text with the Claude messages API.
type AnthropicGenerator struct {
	config     Config
	url        string
	logger     logger.Logger
	httpClient *http.Client
}

func NewAnthropicGenerator(cfg Config, log logger.Logger) (*AnthropicGenerator, error) {
	if cfg.ClaudeKey == "" {
		return nil, errs.Configuration(errs.CodeMissingAPIKey, "Claude API key not configured.")
	}
	url := anthropicURL
	if cfg.ClaudeURL != "" {
		url = cfg.ClaudeURL
	}
	return &AnthropicGenerator{
		config:     cfg,
		url:        url,
		logger:     log,
		httpClient: &http.Client{},
	}, nil
}

func (a *AnthropicGenerator) Generate(ctx context.Context, prompt string) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.timeout())
	defer cancel()

	req := AnthropicRequest{
		Model:     a.config.ModelName(ModelClaude),
		MaxTokens: a.config.maxTokens(),
		Messages:  []Message{{Role: "user", Content: prompt}},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return Completion{}, fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Completion{}, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.config.ClaudeKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "Claude request failed.", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "Claude request failed.", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp AnthropicErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "Claude request failed.",
				fmt.Errorf("anthropic API status %d", resp.StatusCode))
		}
		return Completion{}, errs.Upstream(errs.CodeUpstreamRequestFailed, "Claude request failed.",
			fmt.Errorf("anthropic API error: %s - %s", errResp.Error.Type, errResp.Error.Message))
	}

	var anthropicResp AnthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from Claude.", err)
	}
	if len(anthropicResp.Content) == 0 || strings.TrimSpace(anthropicResp.Content[0].Text) == "" {
		return Completion{}, errs.Upstream(errs.CodeUpstreamInvalidResponse, "Invalid response from Claude.", nil)
	}

	return Completion{
		Text:             strings.TrimSpace(anthropicResp.Content[0].Text),
		TokensUsed:       anthropicResp.Usage.OutputTokens,
		PromptTokens:     anthropicResp.Usage.InputTokens,
		CompletionTokens: anthropicResp.Usage.OutputTokens,
	}, nil
}
