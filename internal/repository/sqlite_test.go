package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/entity"
)

func newTestRepos(t *testing.T) (UploadRepository, RecordRepository) {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteUploadRepository(db, nil), NewSQLiteRecordRepository(db, nil)
}

func TestUploadLifecycle(t *testing.T) {
	uploads, _ := newTestRepos(t)
	ctx := context.Background()

	u := &entity.Upload{
		ID:          "u1",
		StoreID:     "store-1",
		FileType:    constants.FileTypeSalesCSV,
		StoragePath: "store-1/sales.csv",
		UploadedAt:  time.Now().UTC(),
		Status:      constants.StatusPending,
	}
	require.NoError(t, uploads.CreateUpload(ctx, u))

	got, err := uploads.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPending, got.Status)
	assert.Equal(t, constants.FileTypeSalesCSV, got.FileType)
	assert.Empty(t, got.ErrorMessage)

	require.NoError(t, uploads.UpdateStatus(ctx, "u1", constants.StatusProcessing, ""))
	require.NoError(t, uploads.UpdateStatus(ctx, "u1", constants.StatusExtracted, ""))

	got, err = uploads.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusExtracted, got.Status)
}

func TestUpdateStatusTerminalGuard(t *testing.T) {
	uploads, _ := newTestRepos(t)
	ctx := context.Background()

	u := &entity.Upload{
		ID:          "u1",
		StoreID:     "store-1",
		FileType:    constants.FileTypeSalesCSV,
		StoragePath: "p",
		UploadedAt:  time.Now().UTC(),
		Status:      constants.StatusPending,
	}
	require.NoError(t, uploads.CreateUpload(ctx, u))
	require.NoError(t, uploads.UpdateStatus(ctx, "u1", constants.StatusFailed, "provider exploded"))

	// Terminal rows refuse further transitions.
	err := uploads.UpdateStatus(ctx, "u1", constants.StatusProcessing, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTerminalState))

	got, err := uploads.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, got.Status)
	assert.Equal(t, "provider exploded", got.ErrorMessage)
}

func TestUpdateStatusErrorMessageOnlyOnFailed(t *testing.T) {
	uploads, _ := newTestRepos(t)
	ctx := context.Background()

	u := &entity.Upload{
		ID:          "u1",
		StoreID:     "store-1",
		FileType:    constants.FileTypeSalesCSV,
		StoragePath: "p",
		UploadedAt:  time.Now().UTC(),
		Status:      constants.StatusPending,
	}
	require.NoError(t, uploads.CreateUpload(ctx, u))

	// A message passed with a non-FAILED status is discarded.
	require.NoError(t, uploads.UpdateStatus(ctx, "u1", constants.StatusProcessing, "should be dropped"))
	got, err := uploads.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.ErrorMessage)
}

func TestUpdateStatusUnknownUpload(t *testing.T) {
	uploads, _ := newTestRepos(t)
	err := uploads.UpdateStatus(context.Background(), "nope", constants.StatusProcessing, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRecordRoundtrip(t *testing.T) {
	_, records := newTestRepos(t)
	ctx := context.Background()

	total := decimal.RequireFromString("17500")
	rec := &entity.ExtractedRecord{
		ID:               uuid.New(),
		StoreID:          "store-1",
		UploadID:         "u1",
		Type:             constants.RecordTypeSales,
		ExtractionMethod: constants.MethodDeterministic,
		ExtractedAt:      time.Now().UTC().Truncate(time.Second),
		Data:             []byte(`{"records":[],"total_amount":"17500","skipped_rows":0}`),
		TotalAmount:      &total,
	}
	require.NoError(t, records.PutRecord(ctx, rec))

	got, err := records.ListRecords(ctx, "store-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.UploadID, got[0].UploadID)
	assert.Equal(t, constants.RecordTypeSales, got[0].Type)
	assert.Equal(t, constants.MethodDeterministic, got[0].ExtractionMethod)
	assert.JSONEq(t, string(rec.Data), string(got[0].Data))
	require.NotNil(t, got[0].TotalAmount)
	assert.True(t, got[0].TotalAmount.Equal(total))
	assert.True(t, rec.ExtractedAt.Equal(got[0].ExtractedAt))
}

func TestListRecordsWindowAndOrder(t *testing.T) {
	_, records := newTestRepos(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &entity.ExtractedRecord{
			ID:               uuid.New(),
			StoreID:          "store-1",
			UploadID:         "u1",
			Type:             constants.RecordTypeSales,
			ExtractionMethod: constants.MethodDeterministic,
			ExtractedAt:      base.AddDate(0, 0, i),
			Data:             []byte(`{}`),
		}
		require.NoError(t, records.PutRecord(ctx, rec))
	}

	all, err := records.ListRecords(ctx, "store-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.True(t, all[0].ExtractedAt.After(all[2].ExtractedAt))

	from := base.AddDate(0, 0, 1)
	windowed, err := records.ListRecords(ctx, "store-1", &from, nil)
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	other, err := records.ListRecords(ctx, "store-2", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecordNullTotal(t *testing.T) {
	_, records := newTestRepos(t)
	ctx := context.Background()

	rec := &entity.ExtractedRecord{
		ID:               uuid.New(),
		StoreID:          "store-1",
		UploadID:         "u1",
		Type:             constants.RecordTypeDocument,
		ExtractionMethod: constants.MethodMock,
		ExtractedAt:      time.Now().UTC(),
		Data:             []byte(`{"supplier_name":null}`),
	}
	require.NoError(t, records.PutRecord(ctx, rec))

	got, err := records.ListRecords(ctx, "store-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].TotalAmount)
}
