package splitter

import (
	"strings"
	"testing"
)

// reconstruct strips the overlap prefix from every chunk after the first and
// concatenates the remainders, mirroring how Split assembles its output.
func reconstruct(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	prevCore := chunks[0]
	for _, c := range chunks[1:] {
		ov := overlap
		if ov > len(prevCore) {
			ov = len(prevCore)
		}
		core := c[ov:]
		b.WriteString(core)
		prevCore = core
	}
	return b.String()
}

func TestSplitEmptyInput(t *testing.T) {
	s := New(800, 100)
	if chunks := s.Split(""); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitShortInput(t *testing.T) {
	s := New(800, 100)
	chunks := s.Split("a short note")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short note" {
		t.Errorf("expected input unchanged, got %q", chunks[0])
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		text      string
	}{
		{
			name:      "paragraphs",
			chunkSize: 50,
			overlap:   10,
			text:      strings.Repeat("First paragraph here.\n\nSecond paragraph follows.\n\n", 8),
		},
		{
			name:      "sentences",
			chunkSize: 40,
			overlap:   8,
			text:      strings.Repeat("One sentence. Another sentence. A third one. ", 10),
		},
		{
			name:      "single line no periods",
			chunkSize: 30,
			overlap:   5,
			text:      strings.Repeat("word ", 60),
		},
		{
			name:      "no separators at all",
			chunkSize: 16,
			overlap:   4,
			text:      strings.Repeat("x", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.chunkSize, tt.overlap)
			chunks := s.Split(tt.text)
			if len(chunks) == 0 {
				t.Fatal("expected chunks, got none")
			}
			for i, c := range chunks {
				if c == "" {
					t.Errorf("chunk %d is empty", i)
				}
				if len(c) > tt.chunkSize {
					t.Errorf("chunk %d length %d exceeds chunk size %d: %q", i, len(c), tt.chunkSize, c)
				}
			}
			if got := reconstruct(chunks, tt.overlap); got != tt.text {
				t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, tt.text)
			}
		})
	}
}

func TestSplitLosslessReconstruction(t *testing.T) {
	text := "Intro line.\n\nThe study covers production engineering programmes. " +
		"Graduates obtain an engineering degree after seven semesters.\n" +
		"Each semester carries thirty ECTS points. Work placement happens in semester six.\n\n" +
		"Elective modules include machine learning, quality management and logistics."

	for _, overlap := range []int{0, 10, 25} {
		s := New(60, overlap)
		chunks := s.Split(text)
		if got := reconstruct(chunks, overlap); got != text {
			t.Errorf("overlap %d: reconstruction mismatch:\n got %q\nwant %q", overlap, got, text)
		}
	}
}

func TestSplitOversizedAtomicUnit(t *testing.T) {
	// A single word longer than the chunk size is emitted whole once the
	// separator list is exhausted before the hard-cut fallback.
	long := strings.Repeat("a", 40)
	s := New(10, 2, WithSeparators([]string{"\n\n", " "}))
	chunks := s.Split("tiny " + long + " end")

	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected oversized atomic unit to be emitted whole, chunks: %q", chunks)
	}
}

func TestSplitOverlapPrefix(t *testing.T) {
	text := strings.Repeat("Sentence number one. ", 20)
	overlap := 10
	s := New(80, overlap)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	prevCore := chunks[0]
	for i := 1; i < len(chunks); i++ {
		ov := overlap
		if ov > len(prevCore) {
			ov = len(prevCore)
		}
		wantPrefix := prevCore[len(prevCore)-ov:]
		if !strings.HasPrefix(chunks[i], wantPrefix) {
			t.Errorf("chunk %d missing overlap prefix %q: %q", i, wantPrefix, chunks[i])
		}
		prevCore = chunks[i][ov:]
	}
}

func TestNewClampsBadConfig(t *testing.T) {
	tests := []struct {
		name          string
		chunkSize     int
		overlap       int
		wantChunkSize int
		wantOverlap   int
	}{
		{"zero chunk size", 0, 50, DefaultChunkSize, 50},
		{"negative overlap", 400, -1, 400, 0},
		{"overlap above chunk size", 100, 150, 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.chunkSize, tt.overlap)
			if s.ChunkSize() != tt.wantChunkSize {
				t.Errorf("chunk size = %d, want %d", s.ChunkSize(), tt.wantChunkSize)
			}
			if s.Overlap() != tt.wantOverlap {
				t.Errorf("overlap = %d, want %d", s.Overlap(), tt.wantOverlap)
			}
		})
	}
}
