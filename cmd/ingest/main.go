// Command ingest downloads the configured document set and indexes it into
// the Qdrant collection.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/config"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/embed"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/ingest"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/splitter"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	dense, err := embed.NewOllama(&embed.OllamaConfig{
		Host:      cfg.OllamaHost,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDim,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedding provider")
	}

	storeCfg := &vectorstore.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.APIKey,
		Collection: cfg.Collection,
		Dense:      dense,
		Overfetch:  cfg.Overfetch,
		Logger:     log,
	}
	policy := vectorstore.Recreate
	if cfg.Mode == config.ModeHybrid {
		storeCfg.Sparse = embed.NewBM25()
		policy = vectorstore.CreateIfMissing
	}

	store, err := vectorstore.New(storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create vector store")
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx, policy); err != nil {
		log.Fatal().Err(err).Msg("failed to provision collection")
	}
	log.Info().
		Str("collection", cfg.Collection).
		Str("mode", cfg.Mode).
		Msg("collection ready")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to create data directory")
	}

	urls, err := ingest.ListURLs(cfg.URLsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read url list")
	}
	if len(urls) > 0 {
		downloader := ingest.NewDownloader(log)
		saved := downloader.DownloadAll(ctx, urls, cfg.DataDir)
		log.Info().Int("requested", len(urls)).Int("saved", len(saved)).Msg("downloads finished")
	}

	pipeline, err := ingest.New(&ingest.Config{
		Splitter:  splitter.New(cfg.ChunkSize, cfg.Overlap),
		Store:     store,
		Extractor: ingest.PDFExtractor{},
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ingestion pipeline")
	}

	results, err := pipeline.ProcessDir(ctx, cfg.DataDir, []string{"*.pdf"})
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}

	var indexed, skipped, chunks int
	for _, r := range results {
		switch r.Status {
		case ingest.StatusIndexed:
			indexed++
			chunks += r.Uploaded
		case ingest.StatusSkipped:
			skipped++
			log.Warn().Str("file", filepath.Base(r.Path)).Str("reason", r.Reason).Msg("document skipped")
		}
	}

	total, err := store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count indexed points")
	}
	log.Info().
		Int("indexed", indexed).
		Int("skipped", skipped).
		Int("chunks", chunks).
		Uint64("points", total).
		Msg("ingestion complete")
}
