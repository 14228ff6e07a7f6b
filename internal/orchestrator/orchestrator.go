// Package orchestrator drives one upload through the extraction lifecycle:
// PENDING -> PROCESSING -> EXTRACTED or FAILED. Terminal states are final;
// a redelivered trigger for a finished upload is a no-op.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/classifier"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/csvx"
	"github.com/bizledger/docextract/internal/docextract"
	"github.com/bizledger/docextract/internal/entity"
	"github.com/bizledger/docextract/internal/llm"
	"github.com/bizledger/docextract/internal/repository"
	"github.com/bizledger/docextract/internal/storage"
)

// Config holds the timing and fallback knobs for a single invocation.
type Config struct {
	// WallClock bounds the whole invocation, status writes included.
	WallClock time.Duration
	// ProviderTimeout bounds each individual provider attempt.
	ProviderTimeout time.Duration
	// DisableFallback restricts document extraction to the first provider.
	DisableFallback bool
}

// Orchestrator coordinates storage, deterministic parsing, the provider
// chain and the result store for one upload at a time. It is safe for
// concurrent use; all state lives in the stores.
type Orchestrator struct {
	uploads   repository.UploadRepository
	records   repository.RecordRepository
	objects   storage.ObjectStore
	providers []llm.Provider
	docs      *docextract.Extractor
	cfg       Config
	logger    *slog.Logger
}

func New(
	uploads repository.UploadRepository,
	records repository.RecordRepository,
	objects storage.ObjectStore,
	providers []llm.Provider,
	docs *docextract.Extractor,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WallClock <= 0 {
		cfg.WallClock = 3 * time.Minute
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 45 * time.Second
	}
	return &Orchestrator{
		uploads:   uploads,
		records:   records,
		objects:   objects,
		providers: providers,
		docs:      docs,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run processes one upload end to end. Extraction failures are terminal
// outcomes, not errors: the upload is marked FAILED with a reason and Run
// returns nil so the trigger is acknowledged. A non-nil return means the
// outcome could not be persisted at all and the trigger should be retried.
func (o *Orchestrator) Run(ctx context.Context, uploadID string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.WallClock)
	defer cancel()

	start := time.Now()
	log := o.logger.With("upload_id", uploadID)
	log.Info("extract.start")

	defer func() {
		if r := recover(); r != nil {
			log.Error("extract.panic", "panic", r)
			err = o.fail(ctx, log, uploadID, "internal error during extraction")
		}
	}()

	upload, err := o.uploads.GetUpload(ctx, uploadID)
	if err != nil {
		log.Error("extract.load_failed", "error", err)
		return err
	}
	if upload.Status.IsTerminal() {
		log.Info("extract.skip_terminal", "status", string(upload.Status))
		return nil
	}

	if err := o.uploads.UpdateStatus(ctx, uploadID, constants.StatusProcessing, ""); err != nil {
		if errors.Is(err, repository.ErrTerminalState) {
			log.Info("extract.skip_terminal", "status", "concurrent")
			return nil
		}
		log.Error("extract.mark_processing_failed", "error", err)
		return err
	}

	raw, err := o.objects.GetObject(ctx, upload.StoragePath)
	if err != nil {
		log.Error("extract.object_fetch_failed", "path", upload.StoragePath, "error", err)
		if errors.Is(err, common.ErrObjectNotFound) {
			return o.fail(ctx, log, uploadID, fmt.Sprintf("source object not found: %s", upload.StoragePath))
		}
		// Transient storage failure: keep PROCESSING and let redelivery retry.
		return err
	}

	decision := classifier.Classify(upload.FileType, upload.StoragePath, log)
	log.Info("extract.classified",
		"strategy", string(decision.Strategy),
		"file_type", string(decision.FileType),
		"low_confidence", decision.LowConfidence,
	)

	var (
		data   json.RawMessage
		total  *decimal.Decimal
		method constants.ExtractionMethod
	)
	switch decision.Strategy {
	case classifier.StrategyCSV:
		data, total, err = o.runCSV(raw, decision.FileType, log)
		method = constants.MethodDeterministic
	default:
		data, total, method, err = o.runDocument(ctx, raw, upload.StoragePath, decision.FileType, log)
	}
	if err != nil {
		return o.fail(ctx, log, uploadID, failureMessage(err))
	}

	rec := &entity.ExtractedRecord{
		ID:               uuid.New(),
		StoreID:          upload.StoreID,
		UploadID:         upload.ID,
		Type:             constants.RecordTypeFor(decision.FileType),
		ExtractionMethod: method,
		ExtractedAt:      time.Now().UTC(),
		Data:             data,
		TotalAmount:      total,
	}
	if err := o.records.PutRecord(ctx, rec); err != nil {
		// The result never landed, so EXTRACTED must not be written either.
		// Leave the row in PROCESSING and let redelivery retry the whole run.
		log.Error("extract.record_write_failed", "error", err)
		return err
	}

	if err := o.uploads.UpdateStatus(ctx, uploadID, constants.StatusExtracted, ""); err != nil {
		if errors.Is(err, repository.ErrTerminalState) {
			return nil
		}
		log.Error("extract.mark_extracted_failed", "error", err)
		return err
	}

	log.Info("extract.ok",
		"record_id", rec.ID,
		"method", string(method),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (o *Orchestrator) runCSV(raw []byte, ft constants.FileType, log *slog.Logger) (json.RawMessage, *decimal.Decimal, error) {
	out, err := csvx.Extract(raw, ft, log)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal csv data: %w", err)
	}
	total := out.TotalAmount
	return data, &total, nil
}

// runDocument walks the provider chain in order. Each attempt gets its own
// timeout; any provider failure advances to the next provider until the
// chain is exhausted.
func (o *Orchestrator) runDocument(ctx context.Context, raw []byte, path string, ft constants.FileType, log *slog.Logger) (json.RawMessage, *decimal.Decimal, constants.ExtractionMethod, error) {
	if len(o.providers) == 0 {
		return nil, nil, "", errors.New("no extraction providers configured")
	}
	providers := o.providers
	if o.cfg.DisableFallback {
		providers = providers[:1]
	}

	mimeType := constants.MIMETypeFor(path)
	var attemptErrs []string
	for i, p := range providers {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
		doc, err := o.docs.Extract(attemptCtx, p, raw, mimeType, ft)
		cancel()
		if err == nil {
			data, merr := json.Marshal(doc)
			if merr != nil {
				return nil, nil, "", fmt.Errorf("marshal document data: %w", merr)
			}
			return data, doc.TotalAmount, constants.MethodForProvider(p.Name()), nil
		}

		reason := llm.ReasonUnavailable
		var perr *llm.ProviderError
		if errors.As(err, &perr) {
			reason = perr.Reason
		}
		log.Warn("extract.provider_failed",
			"provider", p.Name(),
			"reason", string(reason),
			"attempt", i+1,
			"error", err,
		)
		attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %s", p.Name(), reason))

		if ctx.Err() != nil {
			break
		}
	}
	return nil, nil, "", fmt.Errorf("all providers failed: %s", strings.Join(attemptErrs, "; "))
}

// fail persists the terminal FAILED state. It runs detached from the
// invocation deadline so an expired wall clock cannot also prevent the
// failure from being recorded.
func (o *Orchestrator) fail(ctx context.Context, log *slog.Logger, uploadID, message string) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := o.uploads.UpdateStatus(wctx, uploadID, constants.StatusFailed, message); err != nil {
		if errors.Is(err, repository.ErrTerminalState) {
			return nil
		}
		log.Error("extract.mark_failed_failed", "error", err)
		return err
	}
	log.Warn("extract.failed", "reason", message)
	return nil
}

// failureMessage trims a pipeline error into the operator-facing message
// stored on the upload row.
func failureMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, common.ErrMalformedInput) {
		return msg
	}
	const max = 500
	if len(msg) > max {
		msg = msg[:max]
	}
	return msg
}
