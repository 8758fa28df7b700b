// Package splitter breaks raw document text into overlapping chunks suitable
// for embedding and retrieval.
//
// Splitting is recursive over a prioritized separator list: paragraph breaks
// first, then line breaks, sentence-terminal periods, spaces, and finally hard
// character cuts. The first separator that yields segments within budget wins;
// adjacent small segments are merged back up to the budget, and a configurable
// number of trailing characters from each chunk is prepended to the next one
// to preserve context across boundaries.
package splitter

import "strings"

// Default separator priority. The empty string is a hard cut and guarantees
// progress for text with no natural boundaries.
var defaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// DefaultChunkSize is the number of characters per chunk when not configured.
const DefaultChunkSize = 800

// DefaultOverlap is the number of overlapping characters between adjacent
// chunks when not configured.
const DefaultOverlap = 100

// Splitter splits text into bounded, overlapping chunks.
type Splitter struct {
	chunkSize  int
	overlap    int
	budget     int // chunkSize minus the overlap reserved for the prefix
	separators []string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSeparators overrides the default separator priority list.
func WithSeparators(separators []string) Option {
	return func(s *Splitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// New creates a Splitter for the given chunk size and overlap.
//
// Non-positive chunk sizes fall back to DefaultChunkSize, negative overlaps to
// zero. An overlap at or above the chunk size is capped at a quarter of it so
// chunks always make forward progress.
func New(chunkSize, overlap int, opts ...Option) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	s := &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		budget:     chunkSize - overlap,
		separators: defaultSeparators,
	}
	if s.budget < 1 {
		s.budget = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split breaks text into ordered, non-empty chunks.
//
// Every chunk is at most chunkSize characters long, overlap included, unless a
// single atomic unit (a run of text with no remaining separator) already
// exceeds the budget, in which case the unit is emitted whole. Each chunk
// after the first begins with up to overlap characters repeated from the end
// of its predecessor; stripping those prefixes and concatenating the
// remainders reproduces the input exactly. Empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	segments := s.splitRecursive(text, s.separators)
	merged := s.merge(segments)

	chunks := make([]string, 0, len(merged))
	for i, m := range merged {
		if i > 0 && s.overlap > 0 {
			prev := merged[i-1]
			ov := s.overlap
			if ov > len(prev) {
				ov = len(prev)
			}
			m = prev[len(prev)-ov:] + m
		}
		chunks = append(chunks, m)
	}
	return chunks
}

// splitRecursive cuts text into segments no longer than the budget, trying
// each separator in priority order. Segments concatenate back to the input.
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.budget || len(separators) == 0 {
		return []string{text}
	}

	sep := separators[0]
	var parts []string
	if sep == "" {
		parts = hardCut(text, s.budget)
	} else {
		parts = splitAfter(text, sep)
	}

	if len(parts) == 1 {
		// Separator absent, try the next one.
		return s.splitRecursive(text, separators[1:])
	}

	var segments []string
	for _, part := range parts {
		if len(part) > s.budget {
			segments = append(segments, s.splitRecursive(part, separators[1:])...)
		} else {
			segments = append(segments, part)
		}
	}
	return segments
}

// merge greedily joins adjacent segments while the result stays within budget.
func (s *Splitter) merge(segments []string) []string {
	var merged []string
	current := ""
	for _, seg := range segments {
		if current != "" && len(current)+len(seg) > s.budget {
			merged = append(merged, current)
			current = ""
		}
		current += seg
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

// splitAfter splits text on sep keeping the separator attached to the
// preceding piece, dropping the empty trailing piece a final separator leaves.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if n := len(parts); n > 1 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

// hardCut slices text into pieces of at most size bytes.
func hardCut(text string, size int) []string {
	if size < 1 {
		size = 1
	}
	var parts []string
	for len(text) > size {
		parts = append(parts, text[:size])
		text = text[size:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
