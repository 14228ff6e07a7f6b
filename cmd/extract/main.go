// extract runs the pipeline once against a local file, using SQLite for
// state and the filesystem as the object store. Useful for smoke tests and
// for inspecting what a given input extracts to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/docextract"
	"github.com/bizledger/docextract/internal/entity"
	"github.com/bizledger/docextract/internal/llm"
	"github.com/bizledger/docextract/internal/llm/gemini"
	"github.com/bizledger/docextract/internal/llm/openai"
	"github.com/bizledger/docextract/internal/orchestrator"
	"github.com/bizledger/docextract/internal/repository"
	"github.com/bizledger/docextract/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		dbPath   = flag.String("db", "extract.db", "sqlite database path (\":memory:\" for throwaway)")
		filePath = flag.String("file", "", "path to the input file (required)")
		storeID  = flag.String("store", "local", "store id to attribute records to")
		declared = flag.String("type", "", "declared file type (sales_csv|inventory_csv|invoice_image|receipt_image|document)")
		useMock  = flag.Bool("mock", false, "use the canned mock provider instead of real LLMs")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: extract -file <path> [-type <file_type>] [-db <path>] [-store <id>] [-mock]")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	abs, err := filepath.Abs(*filePath)
	if err != nil {
		fatal("resolve file path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		fatal("stat input file", err)
	}

	db, err := repository.OpenSQLite(ctx, *dbPath)
	if err != nil {
		fatal("open database", err)
	}
	defer func() { _ = db.Close() }()

	uploads := repository.NewSQLiteUploadRepository(db, logger)
	records := repository.NewSQLiteRecordRepository(db, logger)
	objects := storage.NewFS(filepath.Dir(abs))

	providers, cleanup, err := buildProviders(ctx, *useMock, logger)
	if err != nil {
		fatal("configure providers", err)
	}
	defer cleanup()

	upload := &entity.Upload{
		ID:          uuid.NewString(),
		StoreID:     *storeID,
		FileType:    constants.ParseFileType(*declared),
		StoragePath: filepath.Base(abs),
		UploadedAt:  time.Now().UTC(),
		Status:      constants.StatusPending,
	}
	if err := uploads.CreateUpload(ctx, upload); err != nil {
		fatal("create upload", err)
	}

	orch := orchestrator.New(uploads, records, objects, providers,
		docextract.New(logger), orchestrator.Config{}, logger)

	if err := orch.Run(ctx, upload.ID); err != nil {
		fatal("run extraction", err)
	}

	final, err := uploads.GetUpload(ctx, upload.ID)
	if err != nil {
		fatal("load result", err)
	}

	fmt.Printf("upload %s: %s\n", final.ID, final.Status)
	if final.Status == constants.StatusFailed {
		fmt.Printf("reason: %s\n", final.ErrorMessage)
		os.Exit(1)
	}

	recs, err := records.ListRecords(ctx, *storeID, nil, nil)
	if err != nil {
		fatal("list records", err)
	}
	for _, r := range recs {
		if r.UploadID != upload.ID {
			continue
		}
		total := "-"
		if r.TotalAmount != nil {
			total = r.TotalAmount.String()
		}
		fmt.Printf("record %s type=%s method=%s total=%s\n", r.ID, r.Type, r.ExtractionMethod, total)
		fmt.Println(string(r.Data))
	}
}

func buildProviders(ctx context.Context, useMock bool, logger *slog.Logger) ([]llm.Provider, func(), error) {
	cleanup := func() {}
	if useMock {
		return []llm.Provider{llm.NewMock(llm.DefaultCannedDocument, nil)}, cleanup, nil
	}

	cfg := common.LoadConfig()
	var providers []llm.Provider
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
		// CSV-only runs still work without a provider; document inputs will
		// fail with a clear message.
		logger.Warn("no LLM provider key set; document extraction unavailable")
	}
	return providers, cleanup, nil
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "extract: %s: %v\n", what, err)
	os.Exit(1)
}
