// Package storage persists media files on local disk or an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mediabundle/backend/internal/config"
)

var (
	// ErrNotFound indicates no object exists under the requested key.
	ErrNotFound = errors.New("storage object not found")
	// ErrInvalidKey indicates the key is empty or escapes the storage root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage addresses files by slash separated keys such as "0011/24/thumb_1023457_big.jpg".
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.ObjectStoreConfig) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.StorageBackendS3:
		return NewS3Storage(ctx, cfg)
	case config.StorageBackendLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return key, nil
}
