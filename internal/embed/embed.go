// Package embed provides the embedding representations used by the vector
// store: dense vectors from an embedding model and sparse BM25-weighted term
// vectors for lexical scoring.
package embed

import "context"

// Vector is a fixed-dimension dense embedding.
type Vector []float32

// Provider generates dense embeddings for text.
//
// Implementations must return vectors of exactly Dimension() elements; the
// vector store treats a mismatch as a hard failure.
type Provider interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dimension() int
}

// SparseVector is a term-weight representation of text. Indices are stable
// hashes of the terms, values their BM25 term-frequency weights.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// IsEmpty reports whether the vector carries no terms.
func (v SparseVector) IsEmpty() bool { return len(v.Indices) == 0 }
