package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/bizledger/docextract/internal/common"
)

// GCS reads raw uploads from a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewGCS builds a bucket-scoped object store. Explicit JSON credentials are
// used when configured; otherwise Application Default Credentials apply
// (service account or GOOGLE_APPLICATION_CREDENTIALS).
func NewGCS(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		client *storage.Client
		err    error
	)
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (g *GCS) GetObject(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	rc, err := g.client.Bucket(g.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", g.bucket, path, common.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", g.bucket, path, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			g.logger.Warn("storage.gcs.reader_close_error", "path", path, "error", cerr)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", g.bucket, path, err)
	}
	g.logger.Debug("storage.gcs.get",
		"path", path, "bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

func (g *GCS) Close() error { return g.client.Close() }
