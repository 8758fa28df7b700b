package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	// Optional. API key; falls back to the OPENAI_API_KEY environment variable.
	APIKey string

	// Optional. Base URL for OpenAI-compatible endpoints.
	BaseURL string
}

// OpenAI implements Generator against the OpenAI Chat Completions API.
//
// Useful when the assistant should answer with a hosted model instead of a
// local Ollama one; both backends satisfy the same interface.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates an OpenAI generation client.
func NewOpenAI(config *OpenAIConfig) (*OpenAI, error) {
	if config == nil {
		config = &OpenAIConfig{}
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set APIKey or OPENAI_API_KEY)")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAI{client: openai.NewClient(opts...)}, nil
}

// Generate runs a single chat completion and returns the message content.
func (c *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("model is required")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed for model %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices for model %s", model)
	}

	return resp.Choices[0].Message.Content, nil
}
