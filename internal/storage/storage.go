// Package storage stores dataset files in an object store.
//
// Two backends exist: S3-compatible buckets (AWS S3, MinIO, R2) and a local
// directory for development. Keys are slash-separated and never start with "/".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"datamarket/internal/config"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Storage is the object-store surface the services depend on.
type Storage interface {
	// Put stores r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Open streams the object stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns a time-limited direct download URL, or "" when the backend
	// cannot serve objects directly and the caller must stream them.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the backend selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
		})
	case "local":
		return NewLocal(cfg.StorageLocalRoot)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (supported: s3, local)", cfg.StorageDriver)
	}
}

// NewDatasetKey returns a unique key for an uploaded file, keeping the
// original base name readable at the end.
func NewDatasetKey(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		base = "file"
	}
	return fmt.Sprintf("datasets/%d_%s_%s", time.Now().UnixNano(), uuid.New().String()[:8], base)
}
