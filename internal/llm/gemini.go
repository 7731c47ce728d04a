package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "Gemini API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &APICallError{Message: "failed to create Gemini client", Cause: err}
	}
	return &GeminiClient{client: client, config: config}, nil
}

// GenerateContent returns the model's text answer to a prompt.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier, false)
	if err != nil {
		return "", err
	}
	return c.generate(ctx, model, prompt)
}

// GenerateJSON requests a JSON response and strips anything around the object.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier, true)
	if err != nil {
		return "", err
	}
	text, err := c.generate(ctx, model, prompt)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// model configures a model handle with the sampling settings of the config.
func (c *GeminiClient) model(tier ModelTier, jsonMode bool) (*genai.GenerativeModel, error) {
	name, err := modelFor(c.config, tier)
	if err != nil {
		return nil, err
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(float32(c.config.Temperature))
	model.SetMaxOutputTokens(int32(c.config.maxOutputTokens()))
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}
	return model, nil
}

func (c *GeminiClient) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &APICallError{Message: "gemini request failed", Cause: err}
	}
	return geminiText(resp)
}

// GetModel returns the model name used for a tier.
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiText joins the text parts of the first candidate. Blocked prompts and
// responses cut at the token bound are errors, not partial answers.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &ResponseError{Message: "gemini: empty response"}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", &ResponseError{Message: fmt.Sprintf("gemini: prompt blocked (%s)", fb.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return "", &ResponseError{Message: "gemini: no candidates in response"}
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety:
		return "", &ResponseError{Message: "gemini: response blocked by safety filters"}
	case genai.FinishReasonMaxTokens:
		return "", &ResponseError{Message: "gemini: response truncated at the output token limit"}
	}
	if candidate.Content == nil {
		return "", &ResponseError{Message: "gemini: no content in response"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", &ResponseError{Message: "gemini: no text parts in response"}
	}
	return sb.String(), nil
}
