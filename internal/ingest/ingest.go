// Package ingest drives the offline indexing flow: extract text from source
// documents, split it into chunks and upsert every chunk into the vector
// store with uniform document metadata.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/splitter"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/vectorstore"
)

// Extractor supplies the raw text of a source document. A PDF extractor sits
// behind this seam in production; implementations may legitimately return an
// empty string for unreadable sources.
type Extractor interface {
	Extract(path string) (string, error)
}

// Uploader is the slice of the vector store the pipeline writes through.
type Uploader interface {
	Upsert(ctx context.Context, chunk vectorstore.Chunk, metadata map[string]any) error
}

// Document identifies one source document by path.
type Document struct {
	Path string
}

// Status classifies the outcome of processing one document.
type Status int

const (
	// StatusIndexed means chunks were produced and upserts attempted.
	StatusIndexed Status = iota
	// StatusSkipped means extraction produced nothing usable and the vector
	// store was not touched.
	StatusSkipped
)

// Result describes what happened to one document. A skipped document is an
// expected outcome, not an error.
type Result struct {
	Path     string
	Status   Status
	Chunks   int
	Uploaded int
	Reason   string
}

// Config holds pipeline configuration.
type Config struct {
	Splitter  *splitter.Splitter
	Store     Uploader
	Extractor Extractor
	Logger    zerolog.Logger
}

// Pipeline indexes documents into the vector store.
type Pipeline struct {
	splitter  *splitter.Splitter
	store     Uploader
	extractor Extractor
	log       zerolog.Logger
}

// New creates an ingestion pipeline.
func New(config *Config) (*Pipeline, error) {
	if config.Splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("vector store uploader is required")
	}
	if config.Extractor == nil {
		config.Extractor = TextExtractor{}
	}
	return &Pipeline{
		splitter:  config.Splitter,
		store:     config.Store,
		extractor: config.Extractor,
		log:       config.Logger,
	}, nil
}

// Process extracts, splits and indexes one document.
//
// Blank extraction output (empty or whitespace-only) skips the document
// without touching the store. Individual chunk upsert failures are logged and
// skipped so one bad chunk never aborts the rest of the document.
func (p *Pipeline) Process(ctx context.Context, doc Document) Result {
	p.log.Info().Str("path", doc.Path).Msg("processing document")

	text, err := p.extractor.Extract(doc.Path)
	if err != nil {
		p.log.Warn().Err(err).Str("path", doc.Path).Msg("extraction failed")
		return Result{Path: doc.Path, Status: StatusSkipped, Reason: fmt.Sprintf("extraction failed: %v", err)}
	}
	if strings.TrimSpace(text) == "" {
		return Result{Path: doc.Path, Status: StatusSkipped, Reason: "no text extracted"}
	}
	p.log.Info().Str("path", doc.Path).Int("characters", len(text)).Msg("extracted text")

	metadata := map[string]any{
		"file_name":  filepath.Base(doc.Path),
		"file_path":  doc.Path,
		"chunk_size": p.splitter.ChunkSize(),
		"overlap":    p.splitter.Overlap(),
	}

	chunks := p.splitter.Split(text)
	p.log.Info().Str("path", doc.Path).Int("chunks", len(chunks)).Msg("split text into chunks")

	uploaded := 0
	for i, text := range chunks {
		chunk := vectorstore.Chunk{Text: text, Index: i}
		if err := p.store.Upsert(ctx, chunk, metadata); err != nil {
			p.log.Error().Err(err).Str("path", doc.Path).Int("chunk_index", i).Msg("chunk upload failed, continuing")
			continue
		}
		uploaded++
	}

	return Result{Path: doc.Path, Status: StatusIndexed, Chunks: len(chunks), Uploaded: uploaded}
}

// ProcessDir processes every regular file in dir whose name matches one of
// the glob patterns, in lexical order.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string, patterns []string) ([]Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.txt"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !matchesAny(entry.Name(), patterns) {
			continue
		}
		results = append(results, p.Process(ctx, Document{Path: filepath.Join(dir, entry.Name())}))
	}
	return results, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// TextExtractor reads documents as plain UTF-8 text. It stands in for the
// external PDF extractor behind the same interface.
type TextExtractor struct{}

// Extract returns the file contents as a string.
func (TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
