package vectorstore

import "fmt"

// Chunk is one bounded substring of a document, ready for indexing.
type Chunk struct {
	Text  string
	Index int
}

// SearchResult is one ranked hit from a similarity query.
type SearchResult struct {
	Text       string
	Score      float32
	FileName   string
	ChunkIndex int
}

// Policy controls how EnsureCollection treats an existing collection.
type Policy int

const (
	// Recreate deletes any existing collection before creating it again,
	// destroying all stored points. Used by the dense-only variant for full
	// reindexing runs.
	Recreate Policy = iota

	// CreateIfMissing creates the collection only when absent and leaves an
	// existing one untouched. Used by the hybrid variant.
	CreateIfMissing
)

func (p Policy) String() string {
	switch p {
	case Recreate:
		return "recreate"
	case CreateIfMissing:
		return "create-if-missing"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ProvisioningError reports a failed collection lifecycle operation. Callers
// typically abort startup on it rather than proceed against a collection in
// an unknown state.
type ProvisioningError struct {
	Collection string
	Op         string
	Err        error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("collection %s: %s failed: %v", e.Collection, e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
