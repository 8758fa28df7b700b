// Package rag implements the retrieval-augmented answer flow: fetch the most
// relevant chunks for a question, assemble a grounded prompt and run one
// generation call against the configured backend.
package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/llm"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question when not
// configured.
const DefaultTopK = 5

// promptTemplate directs the model to answer strictly from the retrieved
// context. Kept as a fixed template so prompt assembly stays deterministic.
const promptTemplate = `You're a pdf research assistant. Answer the QUESTION based on the CONTEXT from the document database.
Use only the facts from the CONTEXT when answering the QUESTION.

QUESTION: {{.Question}}

CONTEXT:
{{.Context}}`

// Searcher is the slice of the vector store the orchestrator reads through.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]vectorstore.SearchResult, error)
}

// Answer is the outcome of one retrieval-augmented generation call.
type Answer struct {
	Response string
	ModelID  string
	Latency  time.Duration
}

// Config holds orchestrator configuration.
type Config struct {
	Store     Searcher
	Generator llm.Generator

	// Number of chunks to retrieve per question (defaults to DefaultTopK)
	TopK int

	Logger zerolog.Logger
}

// Orchestrator answers questions grounded in retrieved document chunks.
type Orchestrator struct {
	store     Searcher
	generator llm.Generator
	topK      int
	tmpl      *template.Template
	log       zerolog.Logger
}

// New creates a retrieval orchestrator.
func New(config *Config) (*Orchestrator, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("vector store searcher is required")
	}
	if config.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	topK := config.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	tmpl, err := template.New("rag").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	return &Orchestrator{
		store:     config.Store,
		generator: config.Generator,
		topK:      topK,
		tmpl:      tmpl,
		log:       config.Logger,
	}, nil
}

// Answer retrieves the top-K chunks for query, assembles the grounded prompt
// and runs one generation call, returning the raw model output together with
// the generation latency.
//
// The synchronous path applies no retries: a vector store or generation
// failure propagates to the caller as a hard failure.
func (o *Orchestrator) Answer(ctx context.Context, query, modelID string) (Answer, error) {
	if query == "" {
		return Answer{}, fmt.Errorf("query is required")
	}
	if modelID == "" {
		return Answer{}, fmt.Errorf("model id is required")
	}

	o.log.Info().Str("model", modelID).Msg("searching vector store")
	results, err := o.store.Search(ctx, query, o.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}
	o.log.Debug().Int("results", len(results)).Msg("retrieved context chunks")

	prompt, err := o.BuildPrompt(query, results)
	if err != nil {
		return Answer{}, err
	}

	start := time.Now()
	response, err := o.generator.Generate(ctx, modelID, prompt)
	latency := time.Since(start)
	if err != nil {
		return Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	o.log.Info().
		Str("model", modelID).
		Dur("latency", latency).
		Msg("generated answer")
	return Answer{Response: response, ModelID: modelID, Latency: latency}, nil
}

// BuildPrompt assembles the grounded prompt from the verbatim query and the
// retrieved chunk texts. Pure and deterministic: identical inputs always
// produce the identical prompt.
func (o *Orchestrator) BuildPrompt(query string, results []vectorstore.SearchResult) (string, error) {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}

	var b strings.Builder
	err := o.tmpl.Execute(&b, map[string]string{
		"Question": query,
		"Context":  strings.Join(texts, "\n\n"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to assemble prompt: %w", err)
	}
	return b.String(), nil
}
