package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bizledger/docextract/internal/common"
)

// FS serves objects from a local directory root. Used by the one-shot CLI
// and tests; the path layout mirrors the bucket layout.
type FS struct {
	Root string
}

func NewFS(root string) *FS {
	return &FS{Root: root}
}

func (f *FS) GetObject(ctx context.Context, path string) ([]byte, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", full, common.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return data, nil
}
