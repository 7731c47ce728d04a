package llm

import (
	"context"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client using the openai-go SDK (chat completions).
type OpenAIClient struct {
	client openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "OpenAI API key is required"}
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// GenerateContent returns the model's text answer to a prompt.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.complete(ctx, prompt, tier)
}

// GenerateJSON asks for a bare JSON object and strips anything around it.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.complete(ctx, prompt+jsonOnlySuffix, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// chatParams builds a single-turn request with the sampling settings of the config.
func (c *OpenAIClient) chatParams(model, prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(c.config.Temperature),
		MaxCompletionTokens: openai.Int(int64(c.config.maxOutputTokens())),
	}
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := modelFor(c.config, tier)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Chat.Completions.New(ctx, c.chatParams(model, prompt))
	if err != nil {
		return "", &APICallError{Message: "openai request failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ResponseError{Message: "openai: empty choices"}
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return "", &ResponseError{Message: "openai: response truncated at the output token limit"}
	}
	return choice.Message.Content, nil
}

// GetModel returns the model name used for a tier.
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *OpenAIClient) Close() error {
	return nil
}
