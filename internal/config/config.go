// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Retrieval modes supported by the vector store.
const (
	ModeDense  = "dense"
	ModeHybrid = "hybrid"
)

// Generation backends.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Config is the full runtime configuration for the assistant.
type Config struct {
	// HTTP listen address for the API server
	ListenAddr string

	// Qdrant
	QdrantURL  string
	APIKey     string
	Collection string
	Mode       string // dense or hybrid
	Overfetch  int

	// Ollama
	OllamaHost      string
	GenerationModel string
	JudgeModel      string
	EmbeddingModel  string
	EmbeddingDim    int

	// Generation backend selection
	Backend string // ollama or openai

	// OpenAI (used when Backend is openai)
	OpenAIKey string

	// Postgres
	PostgresDSN string
	Timezone    string

	// Chunking
	ChunkSize int
	Overlap   int

	// Retrieval and background processing
	TopK      int
	Workers   int
	QueueSize int

	// Ingestion
	DataDir  string
	URLsFile string
}

// FromEnv builds the configuration from environment variables, applying
// defaults for everything optional. The Postgres connection is left to the
// binary that needs it: ingestion runs without a database.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		QdrantURL:       getEnv("QDRANT_URL", "http://localhost:6334"),
		APIKey:          os.Getenv("QDRANT_API_KEY"),
		Collection:      getEnv("QDRANT_COLLECTION", "pdf_documents"),
		Mode:            getEnv("RETRIEVAL_MODE", ModeHybrid),
		Overfetch:       getEnvInt("RETRIEVAL_OVERFETCH", 10),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		GenerationModel: getEnv("GENERATION_MODEL", "qwen3"),
		JudgeModel:      os.Getenv("JUDGE_MODEL"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "snowflake-arctic-embed:33m"),
		EmbeddingDim:    getEnvInt("EMBEDDING_DIMENSION", 512),
		Backend:         getEnv("GENERATION_BACKEND", BackendOllama),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		Timezone:        getEnv("TZ", "Europe/Warsaw"),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 800),
		Overlap:         getEnvInt("CHUNK_OVERLAP", 100),
		TopK:            getEnvInt("SEARCH_TOP_K", 5),
		Workers:         getEnvInt("EVAL_WORKERS", 4),
		QueueSize:       getEnvInt("EVAL_QUEUE_SIZE", 64),
		DataDir:         getEnv("DATA_DIR", "data"),
		URLsFile:        getEnv("URLS_FILE", "urls.txt"),
	}
	if cfg.JudgeModel == "" {
		cfg.JudgeModel = cfg.GenerationModel
	}

	if cfg.Mode != ModeDense && cfg.Mode != ModeHybrid {
		return nil, fmt.Errorf("invalid RETRIEVAL_MODE %q: must be %q or %q", cfg.Mode, ModeDense, ModeHybrid)
	}
	if cfg.Backend != BackendOllama && cfg.Backend != BackendOpenAI {
		return nil, fmt.Errorf("invalid GENERATION_BACKEND %q: must be %q or %q", cfg.Backend, BackendOllama, BackendOpenAI)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
