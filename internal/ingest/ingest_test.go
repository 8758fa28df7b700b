package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/splitter"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/vectorstore"
)

// mockExtractor returns canned text per path.
type mockExtractor struct {
	texts map[string]string
	err   error
}

func (m *mockExtractor) Extract(path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.texts[path], nil
}

// mockUploader records upserts and can fail selected chunk indexes.
type mockUploader struct {
	chunks   []vectorstore.Chunk
	metadata []map[string]any
	failAt   map[int]bool
}

func (m *mockUploader) Upsert(_ context.Context, chunk vectorstore.Chunk, metadata map[string]any) error {
	if m.failAt[chunk.Index] {
		return errors.New("backend rejected point")
	}
	m.chunks = append(m.chunks, chunk)
	m.metadata = append(m.metadata, metadata)
	return nil
}

func newTestPipeline(t *testing.T, extractor Extractor, store Uploader) *Pipeline {
	t.Helper()
	p, err := New(&Config{
		Splitter:  splitter.New(80, 10),
		Store:     store,
		Extractor: extractor,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

func TestProcessIndexesChunksWithMetadata(t *testing.T) {
	text := strings.Repeat("The programme covers production engineering topics. ", 6)
	store := &mockUploader{}
	p := newTestPipeline(t, &mockExtractor{texts: map[string]string{"/data/programme.pdf": text}}, store)

	result := p.Process(context.Background(), Document{Path: "/data/programme.pdf"})

	if result.Status != StatusIndexed {
		t.Fatalf("status = %v, want indexed (%s)", result.Status, result.Reason)
	}
	if result.Chunks == 0 || result.Uploaded != result.Chunks {
		t.Fatalf("chunks = %d uploaded = %d", result.Chunks, result.Uploaded)
	}
	if len(store.chunks) != result.Uploaded {
		t.Fatalf("store received %d chunks, result says %d", len(store.chunks), result.Uploaded)
	}
	for i, c := range store.chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Text == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	for _, md := range store.metadata {
		if md["file_name"] != "programme.pdf" {
			t.Errorf("file_name = %v", md["file_name"])
		}
		if md["file_path"] != "/data/programme.pdf" {
			t.Errorf("file_path = %v", md["file_path"])
		}
		if md["chunk_size"] != 80 || md["overlap"] != 10 {
			t.Errorf("chunk_size/overlap = %v/%v", md["chunk_size"], md["overlap"])
		}
	}
}

func TestProcessSkipsBlankExtraction(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\t \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockUploader{}
			p := newTestPipeline(t, &mockExtractor{texts: map[string]string{"/data/blank.pdf": tt.text}}, store)

			result := p.Process(context.Background(), Document{Path: "/data/blank.pdf"})

			if result.Status != StatusSkipped {
				t.Errorf("status = %v, want skipped", result.Status)
			}
			if len(store.chunks) != 0 {
				t.Errorf("blank document must not touch the store, got %d upserts", len(store.chunks))
			}
		})
	}
}

func TestProcessSkipsOnExtractionError(t *testing.T) {
	store := &mockUploader{}
	p := newTestPipeline(t, &mockExtractor{err: errors.New("corrupt file")}, store)

	result := p.Process(context.Background(), Document{Path: "/data/broken.pdf"})

	if result.Status != StatusSkipped {
		t.Errorf("status = %v, want skipped", result.Status)
	}
	if result.Reason == "" {
		t.Error("expected a skip reason")
	}
	if len(store.chunks) != 0 {
		t.Errorf("failed extraction must not touch the store, got %d upserts", len(store.chunks))
	}
}

func TestProcessContinuesPastChunkFailures(t *testing.T) {
	text := strings.Repeat("Sentence about semesters and credits. ", 10)
	store := &mockUploader{failAt: map[int]bool{1: true}}
	p := newTestPipeline(t, &mockExtractor{texts: map[string]string{"/data/doc.pdf": text}}, store)

	result := p.Process(context.Background(), Document{Path: "/data/doc.pdf"})

	if result.Status != StatusIndexed {
		t.Fatalf("status = %v, want indexed", result.Status)
	}
	if result.Chunks < 3 {
		t.Fatalf("test needs at least 3 chunks, got %d", result.Chunks)
	}
	if result.Uploaded != result.Chunks-1 {
		t.Errorf("uploaded = %d, want %d (one failed chunk skipped)", result.Uploaded, result.Chunks-1)
	}
	for _, c := range store.chunks {
		if c.Index == 1 {
			t.Error("failed chunk 1 should not be stored")
		}
	}
}

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":      "Alpha document body with enough words to index.",
		"b.txt":      "Beta document body, also with some words.",
		"ignore.bin": "binary-ish",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := &mockUploader{}
	p := newTestPipeline(t, TextExtractor{}, store)

	results, err := p.ProcessDir(context.Background(), dir, []string{"*.txt"})
	if err != nil {
		t.Fatalf("ProcessDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("processed %d files, want 2", len(results))
	}
	for _, r := range results {
		if r.Status != StatusIndexed {
			t.Errorf("%s: status = %v, want indexed", r.Path, r.Status)
		}
	}
}

func TestListURLs(t *testing.T) {
	dir := t.TempDir()
	urlsPath := filepath.Join(dir, "urls.txt")
	content := "https://example.com/a.pdf\n\n  https://example.com/path/b%20c.pdf  \n"
	if err := os.WriteFile(urlsPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := ListURLs(urlsPath)
	if err != nil {
		t.Fatalf("ListURLs failed: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}

	missing, err := ListURLs(filepath.Join(dir, "absent.txt"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing file should yield no urls, got %d", len(missing))
	}
}

func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		want      string
		expectErr bool
	}{
		{"plain", "https://example.com/docs/programme.pdf", "programme.pdf", false},
		{"percent encoded", "https://example.com/docs/study%20plan.pdf", "study plan.pdf", false},
		{"no file name", "https://example.com/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fileNameFromURL(tt.url)
			if tt.expectErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("fileNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
