package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/entity"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS uploads (
	upload_id     TEXT PRIMARY KEY,
	store_id      TEXT NOT NULL,
	file_type     TEXT NOT NULL,
	storage_path  TEXT NOT NULL,
	uploaded_at   TIMESTAMPTZ NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS extracted_records (
	record_id         TEXT PRIMARY KEY,
	store_id          TEXT NOT NULL,
	upload_id         TEXT NOT NULL,
	type              TEXT NOT NULL,
	extraction_method TEXT NOT NULL,
	extracted_at      TIMESTAMPTZ NOT NULL,
	data              JSONB NOT NULL,
	total_amount      TEXT
);
CREATE INDEX IF NOT EXISTS idx_extracted_records_store ON extracted_records (store_id, extracted_at);
CREATE INDEX IF NOT EXISTS idx_extracted_records_upload ON extracted_records (upload_id);
`

// EnsureSchema creates tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, pgSchema)
	return err
}

type pgUploadRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPGUploadRepository(pool *pgxpool.Pool, log *slog.Logger) UploadRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pgUploadRepo{pool: pool, log: log}
}

func (r *pgUploadRepo) GetUpload(ctx context.Context, uploadID string) (*entity.Upload, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT upload_id, store_id, file_type, storage_path, uploaded_at, status, COALESCE(error_message, '')
		FROM uploads WHERE upload_id = $1`, uploadID)

	var u entity.Upload
	var fileType, status string
	err := row.Scan(&u.ID, &u.StoreID, &fileType, &u.StoragePath, &u.UploadedAt, &status, &u.ErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	u.FileType = constants.FileType(fileType)
	u.Status = constants.UploadStatus(status)
	return &u, nil
}

func (r *pgUploadRepo) CreateUpload(ctx context.Context, u *entity.Upload) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO uploads (upload_id, store_id, file_type, storage_path, uploaded_at, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
		u.ID, u.StoreID, string(u.FileType), u.StoragePath, u.UploadedAt, string(u.Status), u.ErrorMessage)
	if err != nil {
		r.log.Error("upload create failed", "upload_id", u.ID, "error", err)
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *pgUploadRepo) UpdateStatus(ctx context.Context, uploadID string, status constants.UploadStatus, errorMessage string) error {
	if status != constants.StatusFailed {
		errorMessage = ""
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE uploads SET status = $2, error_message = NULLIF($3, '')
		WHERE upload_id = $1 AND status NOT IN ($4, $5)`,
		uploadID, string(status), errorMessage,
		string(constants.StatusExtracted), string(constants.StatusFailed))
	if err != nil {
		r.log.Error("upload status update failed", "upload_id", uploadID, "status", string(status), "error", err)
		return fmt.Errorf("update upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.GetUpload(ctx, uploadID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("upload %s: %w", uploadID, ErrTerminalState)
	}
	r.log.Info("upload status updated", "upload_id", uploadID, "status", string(status))
	return nil
}

type pgRecordRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPGRecordRepository(pool *pgxpool.Pool, log *slog.Logger) RecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pgRecordRepo{pool: pool, log: log}
}

func (r *pgRecordRepo) PutRecord(ctx context.Context, rec *entity.ExtractedRecord) error {
	var total *string
	if rec.TotalAmount != nil {
		s := rec.TotalAmount.String()
		total = &s
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO extracted_records (record_id, store_id, upload_id, type, extraction_method, extracted_at, data, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID.String(), rec.StoreID, rec.UploadID, string(rec.Type),
		string(rec.ExtractionMethod), rec.ExtractedAt, []byte(rec.Data), total)
	if err != nil {
		r.log.Error("record put failed", "record_id", rec.ID, "upload_id", rec.UploadID, "error", err)
		return fmt.Errorf("put extracted record: %w", err)
	}
	r.log.Info("record written",
		"record_id", rec.ID, "upload_id", rec.UploadID,
		"type", string(rec.Type), "method", string(rec.ExtractionMethod),
	)
	return nil
}

func (r *pgRecordRepo) ListRecords(ctx context.Context, storeID string, from, to *time.Time) ([]entity.ExtractedRecord, error) {
	q := `
		SELECT record_id, store_id, upload_id, type, extraction_method, extracted_at, data, total_amount
		FROM extracted_records WHERE store_id = $1`
	args := []any{storeID}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND extracted_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND extracted_at <= $%d", len(args))
	}
	q += " ORDER BY extracted_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []entity.ExtractedRecord
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanPGRecord(rows pgx.Rows) (entity.ExtractedRecord, error) {
	var (
		rec            entity.ExtractedRecord
		id, typ, meth  string
		data           []byte
		total          *string
	)
	if err := rows.Scan(&id, &rec.StoreID, &rec.UploadID, &typ, &meth, &rec.ExtractedAt, &data, &total); err != nil {
		return rec, fmt.Errorf("scan record: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return rec, fmt.Errorf("parse record id: %w", err)
	}
	rec.ID = parsed
	rec.Type = constants.RecordType(typ)
	rec.ExtractionMethod = constants.ExtractionMethod(meth)
	rec.Data = data
	if total != nil {
		d, err := decimal.NewFromString(*total)
		if err != nil {
			return rec, fmt.Errorf("parse total_amount: %w", err)
		}
		rec.TotalAmount = &d
	}
	return rec, nil
}
