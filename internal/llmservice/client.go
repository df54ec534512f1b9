package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"vedabase-notes/internal/config"
)

// ErrMissingAPIKey means no LLM credential is configured. Checked before
// any call is attempted; never retried.
var ErrMissingAPIKey = errors.New("LLM API key is not set: add LLM_API_KEY to your .env file or llm.key to the config")

// Client makes single synchronous chat calls against an
// OpenAI-compatible endpoint (OpenRouter by default). No retries: a
// transport or API failure is fatal for the calling phase.
type Client struct {
	llm       *openai.LLM
	maxTokens int
}

func NewClient(cfg *config.LLMConfig, maxTokens int) (*Client, error) {
	if cfg.Key == "" {
		return nil, ErrMissingAPIKey
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	return &Client{llm: llm, maxTokens: maxTokens}, nil
}

// Generate sends one system+user prompt pair and returns the plain text
// response.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
