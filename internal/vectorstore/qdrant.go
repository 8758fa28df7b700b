// Package vectorstore owns the Qdrant collection holding document chunks:
// schema lifecycle, chunk upserts with their embeddings, and similarity
// queries in two modes.
//
// Dense mode declares a single unnamed cosine vector space. Hybrid mode
// declares a named dense space plus a named sparse space with an IDF
// modifier; searches then prefetch a widened dense candidate set and re-rank
// it by the sparse lexical score.
package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/embed"
)

// Names of the vector spaces in hybrid mode.
const (
	denseSpace  = "dense"
	sparseSpace = "bm25"
)

// DefaultCollection is the collection name used when not configured.
const DefaultCollection = "pdf_documents"

// DefaultOverfetch is the dense prefetch multiplier for hybrid search: the
// dense stage fetches Overfetch x limit candidates so the sparse signal has
// room to reorder them.
const DefaultOverfetch = 10

// Config holds vector store configuration.
type Config struct {
	// Qdrant server URL, e.g. "http://localhost:6334" (gRPC port)
	URL string

	// Optional API key for authentication
	APIKey string

	// Collection name (defaults to DefaultCollection)
	Collection string

	// Required. Dense embedding provider; its dimension defines the schema.
	Dense embed.Provider

	// Optional. Sparse encoder; enables hybrid mode when set.
	Sparse *embed.BM25

	// Dense prefetch multiplier for hybrid search (defaults to DefaultOverfetch,
	// values below 2 are raised to keep the prefetch wider than the limit)
	Overfetch int

	// Logger for upsert/search diagnostics
	Logger zerolog.Logger
}

// Store is a Qdrant-backed vector store for document chunks.
type Store struct {
	client     *qd.Client
	collection string
	dense      embed.Provider
	sparse     *embed.BM25
	overfetch  int
	log        zerolog.Logger
}

// New creates a vector store client. It does not touch the collection;
// call EnsureCollection before indexing.
//
// Example:
//
//	store, err := vectorstore.New(&vectorstore.Config{
//	    URL:    "http://localhost:6334",
//	    Dense:  denseProvider,
//	    Sparse: embed.NewBM25(), // omit for dense-only mode
//	})
func New(config *Config) (*Store, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if config.Dense == nil {
		return nil, fmt.Errorf("dense embedding provider is required")
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	overfetch := config.Overfetch
	if overfetch <= 0 {
		overfetch = DefaultOverfetch
	}
	if overfetch < 2 {
		overfetch = 2
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant URL: %w", err)
	}

	port := 6334 // Qdrant gRPC port
	if parsedURL.Port() != "" {
		p, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
		port = p
	}
	host := parsedURL.Hostname()
	if host == "" {
		host = parsedURL.Path // bare "host:port" parses into Path
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   host,
		Port:   port,
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Store{
		client:     client,
		collection: config.Collection,
		dense:      config.Dense,
		sparse:     config.Sparse,
		overfetch:  overfetch,
		log:        config.Logger,
	}, nil
}

// Hybrid reports whether the store carries a sparse lexical space.
func (s *Store) Hybrid() bool { return s.sparse != nil }

// Overfetch returns the dense prefetch multiplier used by hybrid search.
func (s *Store) Overfetch() int { return s.overfetch }

// Collection returns the collection name.
func (s *Store) Collection() string { return s.collection }

// EnsureCollection brings the collection into a usable state under the given
// policy. Recreate deletes an existing collection first; CreateIfMissing is a
// no-op when the collection already exists. Backend failures surface as a
// *ProvisioningError so callers can abort startup instead of operating on a
// collection in an unknown state.
func (s *Store) EnsureCollection(ctx context.Context, policy Policy) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return &ProvisioningError{Collection: s.collection, Op: "existence check", Err: err}
	}

	if exists {
		switch policy {
		case CreateIfMissing:
			s.log.Debug().Str("collection", s.collection).Msg("collection already exists")
			return nil
		case Recreate:
			s.log.Info().Str("collection", s.collection).Msg("deleting existing collection for fresh start")
			if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
				return &ProvisioningError{Collection: s.collection, Op: "delete", Err: err}
			}
		}
	}

	if err := s.createCollection(ctx); err != nil {
		return &ProvisioningError{Collection: s.collection, Op: "create", Err: err}
	}
	s.log.Info().
		Str("collection", s.collection).
		Bool("hybrid", s.Hybrid()).
		Int("dimension", s.dense.Dimension()).
		Msg("created collection")
	return nil
}

func (s *Store) createCollection(ctx context.Context) error {
	size := uint64(s.dense.Dimension())

	req := &qd.CreateCollection{CollectionName: s.collection}
	if s.Hybrid() {
		req.VectorsConfig = qd.NewVectorsConfigMap(map[string]*qd.VectorParams{
			denseSpace: {
				Size:     size,
				Distance: qd.Distance_Cosine,
			},
		})
		req.SparseVectorsConfig = qd.NewSparseVectorsConfig(map[string]*qd.SparseVectorParams{
			sparseSpace: {
				Modifier: qd.Modifier_Idf.Enum(),
			},
		})
	} else {
		req.VectorsConfig = qd.NewVectorsConfig(&qd.VectorParams{
			Size:     size,
			Distance: qd.Distance_Cosine,
		})
	}

	return s.client.CreateCollection(ctx, req)
}

// Upsert embeds one chunk and writes it as a new point keyed by a fresh UUID.
// The payload carries the chunk text, index and length plus the caller's
// document metadata. On failure nothing is written and no retry happens.
func (s *Store) Upsert(ctx context.Context, chunk Chunk, metadata map[string]any) error {
	if chunk.Text == "" {
		return fmt.Errorf("refusing to upsert empty chunk %d", chunk.Index)
	}

	vector, err := s.dense.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %d: %w", chunk.Index, err)
	}
	if len(vector) != s.dense.Dimension() {
		return fmt.Errorf("vector dimension %d does not match collection dimension %d",
			len(vector), s.dense.Dimension())
	}

	pointID := uuid.NewString()
	point := &qd.PointStruct{
		Id:      &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: pointID}},
		Vectors: s.buildVectors(vector, chunk.Text),
		Payload: buildPayload(chunk, metadata),
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qd.PointStruct{point},
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point %s to collection %s: %w", pointID, s.collection, err)
	}

	s.log.Debug().
		Str("point", pointID).
		Int("chunk_index", chunk.Index).
		Msg("uploaded point")
	return nil
}

func (s *Store) buildVectors(vector embed.Vector, text string) *qd.Vectors {
	if !s.Hybrid() {
		return qd.NewVectors(vector...)
	}
	sv := s.sparse.Encode(text)
	return qd.NewVectorsMap(map[string]*qd.Vector{
		denseSpace:  qd.NewVector(vector...),
		sparseSpace: qd.NewVectorSparse(sv.Indices, sv.Values),
	})
}

// Search returns up to limit chunks ranked by descending relevance. Dense
// mode ranks by cosine similarity alone. Hybrid mode prefetches
// overfetch x limit dense candidates and re-ranks them by the sparse lexical
// score, so keyword matches can reorder the semantic neighbours.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := s.dense.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	req := s.buildQuery(vector, query, limit)
	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, convertPoint(point))
	}
	return results, nil
}

// buildQuery assembles the query request for the store's mode. In hybrid mode
// the dense prefetch is always strictly wider than the final limit.
func (s *Store) buildQuery(vector embed.Vector, query string, limit int) *qd.QueryPoints {
	final := uint64(limit)

	if !s.Hybrid() {
		return &qd.QueryPoints{
			CollectionName: s.collection,
			Query:          qd.NewQuery(vector...),
			Limit:          &final,
			WithPayload:    qd.NewWithPayload(true),
		}
	}

	sv := s.sparse.Encode(query)
	if sv.IsEmpty() {
		// No lexical signal to re-rank with; fall back to a plain dense query
		// over the named space.
		return &qd.QueryPoints{
			CollectionName: s.collection,
			Query:          qd.NewQuery(vector...),
			Using:          qd.PtrOf(denseSpace),
			Limit:          &final,
			WithPayload:    qd.NewWithPayload(true),
		}
	}

	prefetch := uint64(s.overfetch * limit)
	return &qd.QueryPoints{
		CollectionName: s.collection,
		Prefetch: []*qd.PrefetchQuery{{
			Query: qd.NewQuery(vector...),
			Using: qd.PtrOf(denseSpace),
			Limit: qd.PtrOf(prefetch),
		}},
		Query:       qd.NewQuerySparse(sv.Indices, sv.Values),
		Using:       qd.PtrOf(sparseSpace),
		Limit:       &final,
		WithPayload: qd.NewWithPayload(true),
	}
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	exact := true
	count, err := s.client.Count(ctx, &qd.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points in collection %s: %w", s.collection, err)
	}
	return count, nil
}

// Health checks whether the Qdrant server is reachable.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close qdrant client: %w", err)
	}
	return nil
}

// buildPayload converts a chunk and its document metadata to Qdrant payload
// values.
func buildPayload(chunk Chunk, metadata map[string]any) map[string]*qd.Value {
	payload := map[string]*qd.Value{
		"text":         qd.NewValueString(chunk.Text),
		"chunk_index":  qd.NewValueInt(int64(chunk.Index)),
		"chunk_length": qd.NewValueInt(int64(len(chunk.Text))),
	}

	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			payload[key] = qd.NewValueString(v)
		case int:
			payload[key] = qd.NewValueInt(int64(v))
		case int64:
			payload[key] = qd.NewValueInt(v)
		case float64:
			payload[key] = qd.NewValueDouble(v)
		case bool:
			payload[key] = qd.NewValueBool(v)
		default:
			payload[key] = qd.NewValueString(fmt.Sprintf("%v", v))
		}
	}
	return payload
}

// convertPoint extracts a search result from a scored Qdrant point.
func convertPoint(point *qd.ScoredPoint) SearchResult {
	result := SearchResult{Score: point.Score, FileName: "unknown"}

	payload := point.GetPayload()
	if payload == nil {
		return result
	}
	if v, ok := payload["text"]; ok {
		result.Text = v.GetStringValue()
	}
	if v, ok := payload["file_name"]; ok {
		if name := v.GetStringValue(); name != "" {
			result.FileName = name
		}
	}
	if v, ok := payload["chunk_index"]; ok {
		result.ChunkIndex = int(v.GetIntegerValue())
	}
	return result
}
