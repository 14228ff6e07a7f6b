package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/async"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/entity"
	"github.com/bizledger/docextract/internal/export"
	"github.com/bizledger/docextract/internal/repository"
)

func newTestServer(t *testing.T) (*gin.Engine, repository.UploadRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	uploads := repository.NewSQLiteUploadRepository(db, nil)
	records := repository.NewSQLiteRecordRepository(db, nil)

	queue := async.NewExtractQueue(noopRunner{}, nil, async.WithWorkers(1))
	t.Cleanup(func() { queue.Shutdown(context.Background()) })

	srv := New(uploads, queue, export.NewService(records, nil), nil)
	return srv.Router(common.ServerConfig{}), uploads
}

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, uploadID string) error { return nil }

func seedUpload(t *testing.T, uploads repository.UploadRepository, id string) {
	t.Helper()
	require.NoError(t, uploads.CreateUpload(context.Background(), &entity.Upload{
		ID:          id,
		StoreID:     "store-1",
		FileType:    constants.FileTypeSalesCSV,
		StoragePath: "store-1/sales.csv",
		UploadedAt:  time.Now().UTC(),
		Status:      constants.StatusPending,
	}))
}

func TestHealthz(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetUpload(t *testing.T) {
	router, uploads := newTestServer(t)
	seedUpload(t, uploads, "u1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/uploads/u1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PENDING"`)
	assert.Contains(t, w.Body.String(), `"store_id":"store-1"`)
}

func TestGetUploadNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/uploads/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerExtract(t *testing.T) {
	router, uploads := newTestServer(t)
	seedUpload(t, uploads, "u1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/uploads/u1/extract", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":true`)
}

func TestTriggerExtractUnknownUpload(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/uploads/missing/extract", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportDownload(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stores/store-1/records/export.xlsx", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestExportBadDateParam(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stores/store-1/records/export.xlsx?from=soon", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
