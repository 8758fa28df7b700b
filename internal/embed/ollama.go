package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaConfig holds configuration for the Ollama embedding provider.
type OllamaConfig struct {
	// Optional. Ollama server host (defaults to OLLAMA_HOST env or localhost:11434)
	Host string

	// Required. Embedding model name, e.g. "nomic-embed-text"
	Model string

	// Required. Output dimension of the embedding model. Responses with a
	// different dimension are rejected.
	Dimension int
}

// Ollama generates dense embeddings through a local Ollama server.
type Ollama struct {
	client    *api.Client
	model     string
	dimension int
}

// NewOllama creates an Ollama-backed embedding provider.
//
// Example:
//
//	provider, err := embed.NewOllama(&embed.OllamaConfig{
//	    Model:     "nomic-embed-text",
//	    Dimension: 768,
//	})
func NewOllama(config *OllamaConfig) (*Ollama, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.Dimension)
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

	return &Ollama{
		client:    client,
		model:     config.Model,
		dimension: config.Dimension,
	}, nil
}

// Embed returns the dense embedding for text.
func (o *Ollama) Embed(ctx context.Context, text string) (Vector, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text cannot be embedded")
	}

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings for model %s", o.model)
	}

	vector := resp.Embeddings[0]
	if len(vector) != o.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: model %s returned %d, expected %d",
			o.model, len(vector), o.dimension)
	}
	return Vector(vector), nil
}

// Dimension returns the declared embedding dimension.
func (o *Ollama) Dimension() int { return o.dimension }
