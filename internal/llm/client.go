package llm

import (
	"context"
	"fmt"
)

// Client is an abstraction over LLM providers. The quality and improvement
// capabilities are built on top of it.
type Client interface {
	// GenerateContent returns the model's text answer to a prompt.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON returns a JSON answer with surrounding prose and fences removed.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the model name used for a tier.
	GetModel(tier ModelTier) string
	Close() error
}

// NewClient creates the client of the configured provider. A nil config selects Gemini defaults.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// jsonOnlySuffix asks providers without a JSON response mode for a bare object.
const jsonOnlySuffix = "\n\nRespond with the JSON object only."

// modelFor resolves the model of a tier or reports a configuration gap.
func modelFor(config *Config, tier ModelTier) (string, error) {
	name := config.GetModel(tier)
	if name == "" {
		return "", &APICallError{Message: fmt.Sprintf("no %s model configured for tier %s", config.Provider, tier)}
	}
	return name, nil
}
