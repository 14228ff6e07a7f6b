package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS uploads (
	upload_id     TEXT PRIMARY KEY,
	store_id      TEXT NOT NULL,
	file_type     TEXT NOT NULL,
	storage_path  TEXT NOT NULL,
	uploaded_at   TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS extracted_records (
	record_id         TEXT PRIMARY KEY,
	store_id          TEXT NOT NULL,
	upload_id         TEXT NOT NULL,
	type              TEXT NOT NULL,
	extraction_method TEXT NOT NULL,
	extracted_at      TEXT NOT NULL,
	data              TEXT NOT NULL,
	total_amount      TEXT
);
CREATE INDEX IF NOT EXISTS idx_extracted_records_store ON extracted_records (store_id, extracted_at);
CREATE INDEX IF NOT EXISTS idx_extracted_records_upload ON extracted_records (upload_id);
`

// OpenSQLite opens (or creates) a SQLite result store for single-binary and
// test runs. Use ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is serialized per connection; a single connection keeps
	// in-memory databases from vanishing between pool handles.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return db, nil
}

type sqliteUploadRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteUploadRepository(db *sql.DB, log *slog.Logger) UploadRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sqliteUploadRepo{db: db, log: log}
}

func (r *sqliteUploadRepo) GetUpload(ctx context.Context, uploadID string) (*entity.Upload, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT upload_id, store_id, file_type, storage_path, uploaded_at, status, COALESCE(error_message, '')
		FROM uploads WHERE upload_id = ?`, uploadID)

	var (
		u                          entity.Upload
		fileType, status, uploaded string
	)
	err := row.Scan(&u.ID, &u.StoreID, &fileType, &u.StoragePath, &uploaded, &status, &u.ErrorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	u.FileType = constants.FileType(fileType)
	u.Status = constants.UploadStatus(status)
	if t, perr := time.Parse(time.RFC3339Nano, uploaded); perr == nil {
		u.UploadedAt = t
	}
	return &u, nil
}

func (r *sqliteUploadRepo) CreateUpload(ctx context.Context, u *entity.Upload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (upload_id, store_id, file_type, storage_path, uploaded_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''))`,
		u.ID, u.StoreID, string(u.FileType), u.StoragePath,
		u.UploadedAt.UTC().Format(time.RFC3339Nano), string(u.Status), u.ErrorMessage)
	if err != nil {
		r.log.Error("upload create failed", "upload_id", u.ID, "error", err)
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *sqliteUploadRepo) UpdateStatus(ctx context.Context, uploadID string, status constants.UploadStatus, errorMessage string) error {
	if status != constants.StatusFailed {
		errorMessage = ""
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET status = ?, error_message = NULLIF(?, '')
		WHERE upload_id = ? AND status NOT IN (?, ?)`,
		string(status), errorMessage, uploadID,
		string(constants.StatusExtracted), string(constants.StatusFailed))
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if n == 0 {
		if _, gerr := r.GetUpload(ctx, uploadID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("upload %s: %w", uploadID, ErrTerminalState)
	}
	r.log.Info("upload status updated", "upload_id", uploadID, "status", string(status))
	return nil
}

type sqliteRecordRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteRecordRepository(db *sql.DB, log *slog.Logger) RecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sqliteRecordRepo{db: db, log: log}
}

func (r *sqliteRecordRepo) PutRecord(ctx context.Context, rec *entity.ExtractedRecord) error {
	var total any
	if rec.TotalAmount != nil {
		total = rec.TotalAmount.String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extracted_records (record_id, store_id, upload_id, type, extraction_method, extracted_at, data, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.StoreID, rec.UploadID, string(rec.Type),
		string(rec.ExtractionMethod), rec.ExtractedAt.UTC().Format(time.RFC3339Nano),
		string(rec.Data), total)
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

func (r *sqliteRecordRepo) ListRecords(ctx context.Context, storeID string, from, to *time.Time) ([]entity.ExtractedRecord, error) {
	q := `
		SELECT record_id, store_id, upload_id, type, extraction_method, extracted_at, data, total_amount
		FROM extracted_records WHERE store_id = ?`
	args := []any{storeID}
	if from != nil {
		q += " AND extracted_at >= ?"
		args = append(args, from.UTC().Format(time.RFC3339Nano))
	}
	if to != nil {
		q += " AND extracted_at <= ?"
		args = append(args, to.UTC().Format(time.RFC3339Nano))
	}
	q += " ORDER BY extracted_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []entity.ExtractedRecord
	for rows.Next() {
		var (
			rec                           entity.ExtractedRecord
			id, typ, meth, extracted, dat string
			total                         sql.NullString
		)
		if err := rows.Scan(&id, &rec.StoreID, &rec.UploadID, &typ, &meth, &extracted, &dat, &total); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse record id: %w", err)
		}
		rec.ID = parsed
		rec.Type = constants.RecordType(typ)
		rec.ExtractionMethod = constants.ExtractionMethod(meth)
		rec.Data = []byte(dat)
		if t, perr := time.Parse(time.RFC3339Nano, extracted); perr == nil {
			rec.ExtractedAt = t
		}
		if total.Valid {
			d, derr := decimal.NewFromString(total.String)
			if derr != nil {
				return nil, fmt.Errorf("parse total_amount: %w", derr)
			}
			rec.TotalAmount = &d
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
