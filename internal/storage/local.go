package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
)

// LocalStorage stores files under a directory on the local filesystem.
type LocalStorage struct {
	baseURL string
	dir     string
}

func NewLocalStorage(baseURL, dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{baseURL: strings.TrimRight(baseURL, "/"), dir: dir}, nil
}

// path rejects keys that would escape the storage directory.
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", domain.NewError(domain.KindValidation, "invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	p, err := s.path(key)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	logger.Debug("Stored file", "key", key, "size", n)
	return n, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewError(domain.KindNotFound, "file %s not found", key)
	}
	return f, err
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return fmt.Sprintf("%s/api/v1/avatars/%s", s.baseURL, key)
}
