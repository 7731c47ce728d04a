package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "Anthropic API key is required"}
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

// GenerateContent returns the concatenated text blocks of the model's answer.
func (c *AnthropicClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := modelFor(c.config, tier)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Messages.New(ctx, c.messageParams(model, prompt))
	if err != nil {
		return "", &APICallError{Message: "anthropic request failed", Cause: err}
	}
	if resp.StopReason == anthropic.StopReasonMaxTokens {
		return "", &ResponseError{Message: "anthropic: response truncated at the output token limit"}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &ResponseError{Message: "anthropic: no text blocks in response"}
	}
	return sb.String(), nil
}

// messageParams builds a single-turn request with the sampling settings of the config.
func (c *AnthropicClient) messageParams(model, prompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(c.config.maxOutputTokens()),
		Temperature: anthropic.Float(c.config.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
}

// GenerateJSON asks for a bare JSON object and strips anything around it.
func (c *AnthropicClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt+jsonOnlySuffix, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name used for a tier.
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *AnthropicClient) Close() error {
	return nil
}
