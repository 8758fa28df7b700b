// Package llm provides the generation backends used for answering questions
// and judging answer relevance. Ollama is the primary backend; an OpenAI
// client implements the same interface for hosted models.
package llm

import "context"

// Generator produces a completion for a prompt using the named model.
//
// Calls are synchronous and non-streaming; one call covers one orchestration
// step (answer generation or relevance evaluation).
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
