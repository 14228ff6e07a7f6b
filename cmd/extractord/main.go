// extractord is the long-running extraction worker: it consumes file-landed
// events from Pub/Sub, serves the HTTP trigger/read API, and writes results
// to Postgres.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bizledger/docextract/internal/async"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/docextract"
	"github.com/bizledger/docextract/internal/events"
	"github.com/bizledger/docextract/internal/export"
	"github.com/bizledger/docextract/internal/llm"
	"github.com/bizledger/docextract/internal/llm/gemini"
	"github.com/bizledger/docextract/internal/llm/openai"
	"github.com/bizledger/docextract/internal/orchestrator"
	"github.com/bizledger/docextract/internal/repository"
	"github.com/bizledger/docextract/internal/server"
	"github.com/bizledger/docextract/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	objects, err := storage.NewGCS(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open object store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = objects.Close() }()

	providers, cleanup, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build providers", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	uploads := repository.NewPGUploadRepository(pool, logger)
	records := repository.NewPGRecordRepository(pool, logger)

	orch := orchestrator.New(
		uploads, records, objects, providers,
		docextract.New(logger),
		orchestrator.Config{
			WallClock:       cfg.Extraction.WallClock,
			ProviderTimeout: cfg.Extraction.ProviderTimeout,
			DisableFallback: cfg.Extraction.DisableFallback,
		},
		logger,
	)

	queue := async.NewExtractQueue(orch, logger,
		async.WithWorkers(cfg.Extraction.QueueWorkers),
		async.WithQueueSize(cfg.Extraction.QueueSize),
		async.WithJobTimeout(cfg.Extraction.WallClock),
	)

	if cfg.Events.ProjectID != "" {
		sub, err := events.NewSubscriber(ctx, cfg.Events, orch, logger)
		if err != nil {
			logger.Error("failed to create subscriber", "error", err)
			os.Exit(1)
		}
		defer func() { _ = sub.Close() }()
		go func() {
			if err := sub.Receive(ctx); err != nil {
				logger.Error("subscriber stopped", "error", err)
				stop()
			}
		}()
	} else {
		logger.Warn("PUBSUB_PROJECT_ID not set, event consumption disabled")
	}

	srv := server.New(uploads, queue, export.NewService(records, logger), logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	queue.Shutdown(shutdownCtx)
	logger.Info("shutdown complete")
}

// buildProviders assembles the fallback chain in priority order: the free
// tier first, the paid fallback second.
func buildProviders(ctx context.Context, cfg *common.Config, logger *slog.Logger) ([]llm.Provider, func(), error) {
	var providers []llm.Provider
	cleanup := func() {}

	if cfg.Gemini.APIKey != "" {
		gc, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			VisionModel: cfg.Gemini.VisionModel,
			TextModel:   cfg.Gemini.TextModel,
			Temperature: cfg.Gemini.Temperature,
		}, logger)
		if err != nil {
			return nil, cleanup, err
		}
		providers = append(providers, gc)
		cleanup = func() { _ = gc.Close() }
	}
	if cfg.OpenAI.APIKey != "" {
		providers = append(providers, openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			VisionModel: cfg.OpenAI.VisionModel,
			TextModel:   cfg.OpenAI.TextModel,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		}, logger))
	}
	if len(providers) == 0 {
		return nil, cleanup, errors.New("no LLM provider configured")
	}
	return providers, cleanup, nil
}
