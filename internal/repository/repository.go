// Package repository holds the narrow persistence interfaces the pipeline
// depends on, with Postgres (pgx) and SQLite (database/sql) backends.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/entity"
)

// ErrTerminalState is returned by UpdateStatus when the row is already in a
// terminal state. Callers treat it as the concurrent-redelivery guard firing,
// not as a failure.
var ErrTerminalState = errors.New("upload already in terminal state")

// UploadRepository is the orchestrator's view of upload rows. Status moves
// forward only; backends refuse transitions out of EXTRACTED/FAILED.
type UploadRepository interface {
	GetUpload(ctx context.Context, uploadID string) (*entity.Upload, error)
	// CreateUpload exists for the CLI and tests; in production the intake
	// collaborator owns row creation.
	CreateUpload(ctx context.Context, u *entity.Upload) error
	// UpdateStatus advances the lifecycle. errorMessage is persisted only
	// with FAILED and cleared otherwise.
	UpdateStatus(ctx context.Context, uploadID string, status constants.UploadStatus, errorMessage string) error
}

// RecordRepository writes and lists immutable extraction results.
type RecordRepository interface {
	PutRecord(ctx context.Context, r *entity.ExtractedRecord) error
	// ListRecords returns records for a store, newest first, optionally
	// bounded by an inclusive extracted_at window.
	ListRecords(ctx context.Context, storeID string, from, to *time.Time) ([]entity.ExtractedRecord, error)
}
