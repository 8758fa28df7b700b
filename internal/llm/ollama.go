package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaConfig holds Ollama-specific configuration.
//
// All fields are optional; an empty host falls back to the OLLAMA_HOST
// environment variable or localhost:11434.
type OllamaConfig struct {
	// Optional. Ollama server host, e.g. "http://ollama:11434"
	Host string

	// Optional. Controls how long the model stays loaded in memory (e.g. "5m")
	KeepAlive string
}

// Ollama implements Generator against a local Ollama server.
//
// Example:
//
//	gen, err := llm.NewOllama(&llm.OllamaConfig{Host: "http://localhost:11434"})
//	answer, err := gen.Generate(ctx, "qwen3", prompt)
type Ollama struct {
	client *api.Client
	config *OllamaConfig
}

// NewOllama creates an Ollama generation client.
func NewOllama(config *OllamaConfig) (*Ollama, error) {
	if config == nil {
		config = &OllamaConfig{}
	}

	var client *api.Client
	if config.Host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client from environment: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(config.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host URL: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &Ollama{client: client, config: config}, nil
}

// Generate runs a single non-streaming completion and returns the full
// response text.
func (o *Ollama) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("model is required")
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
	}
	if o.config.KeepAlive != "" {
		d, err := time.ParseDuration(o.config.KeepAlive)
		if err != nil {
			return "", fmt.Errorf("invalid keep alive %q: %w", o.config.KeepAlive, err)
		}
		req.KeepAlive = &api.Duration{Duration: d}
	}

	var response strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed for model %s: %w", model, err)
	}

	return response.String(), nil
}
