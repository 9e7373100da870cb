package storage

import (
	"context"
	"io"
)

// Storage keeps uploaded avatar images. Keys are flat file names chosen by
// the caller.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL is the public download link for key.
	URL(key string) string
}
