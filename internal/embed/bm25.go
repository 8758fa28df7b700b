package embed

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// BM25 default parameters, the values commonly used in lexical ranking.
const (
	defaultK1        = 1.2
	defaultB         = 0.75
	defaultAvgTokens = 256
)

// BM25 encodes text into sparse term-weight vectors.
//
// Weights are the BM25 term-frequency component only; the inverse document
// frequency factor is applied server-side by the vector store's IDF modifier,
// so the encoder stays stateless and needs no corpus statistics beyond an
// average document length estimate.
type BM25 struct {
	k1        float64
	b         float64
	avgTokens float64
}

// NewBM25 creates a sparse encoder with standard BM25 parameters.
func NewBM25() *BM25 {
	return &BM25{
		k1:        defaultK1,
		b:         defaultB,
		avgTokens: defaultAvgTokens,
	}
}

// Encode converts text into a sparse term-weight vector. Identical inputs
// always produce identical vectors. Empty or non-lexical text yields an
// empty vector.
func (e *BM25) Encode(text string) SparseVector {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return SparseVector{}
	}

	freq := make(map[uint32]float64)
	for _, tok := range tokens {
		freq[termIndex(tok)]++
	}

	docLen := float64(len(tokens))
	norm := e.k1 * (1 - e.b + e.b*docLen/e.avgTokens)

	indices := make([]uint32, 0, len(freq))
	for idx := range freq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		tf := freq[idx]
		values[i] = float32(tf * (e.k1 + 1) / (tf + norm))
	}

	return SparseVector{Indices: indices, Values: values}
}

// Score computes the lexical similarity between two texts as the dot product
// of their sparse encodings. Used by the hybrid search fusion stage.
func (e *BM25) Score(query, text string) float32 {
	q := e.Encode(query)
	d := e.Encode(text)
	if q.IsEmpty() || d.IsEmpty() {
		return 0
	}

	weights := make(map[uint32]float32, len(d.Indices))
	for i, idx := range d.Indices {
		weights[idx] = d.Values[i]
	}

	var score float64
	for i, idx := range q.Indices {
		if w, ok := weights[idx]; ok {
			score += float64(q.Values[i]) * float64(w)
		}
	}
	return float32(math.Min(score, math.MaxFloat32))
}

// tokenize lowercases text and splits it on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// termIndex maps a token to a stable sparse dimension.
func termIndex(token string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(token))
	return h.Sum32()
}
