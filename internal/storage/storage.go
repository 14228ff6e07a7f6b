// Package storage provides the narrow object-store capability the
// orchestrator needs from the upload bucket.
package storage

import "context"

// ObjectStore resolves a stored raw file by its storage path. Implementations
// surface common.ErrObjectNotFound for absent objects.
type ObjectStore interface {
	GetObject(ctx context.Context, path string) ([]byte, error)
}
