// Command server runs the question-answering HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/background"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/config"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/embed"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/eval"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/llm"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/rag"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/server"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/store"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.PostgresDSN == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
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
	if cfg.Mode == config.ModeHybrid {
		storeCfg.Sparse = embed.NewBM25()
	}
	vectors, err := vectorstore.New(storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create vector store")
	}
	defer vectors.Close()

	if err := vectors.EnsureCollection(ctx, vectorstore.CreateIfMissing); err != nil {
		log.Fatal().Err(err).Msg("failed to provision collection")
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generation backend")
	}

	orchestrator, err := rag.New(&rag.Config{
		Store:     vectors,
		Generator: generator,
		TopK:      cfg.TopK,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create orchestrator")
	}

	evaluator, err := eval.New(&eval.Config{Generator: generator, Logger: log})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create evaluator")
	}

	conversations, err := store.New(&store.Config{
		DSN:      cfg.PostgresDSN,
		Timezone: cfg.Timezone,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create conversation store")
	}
	if err := conversations.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	runner, err := background.New(&background.Config{
		Evaluator: evaluator,
		Store:     conversations,
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start background runner")
	}

	api, err := server.New(&server.Config{
		Orchestrator: orchestrator,
		Runner:       runner,
		DefaultModel: cfg.GenerationModel,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation can be slow
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("background runner shutdown failed")
	}
}

func newGenerator(cfg *config.Config) (llm.Generator, error) {
	if cfg.Backend == config.BackendOpenAI {
		return llm.NewOpenAI(&llm.OpenAIConfig{APIKey: cfg.OpenAIKey})
	}
	return llm.NewOllama(&llm.OllamaConfig{Host: cfg.OllamaHost})
}
