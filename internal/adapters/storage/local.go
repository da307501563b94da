// internal/adapters/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage implements StorageClient on the local filesystem. Used for
// development and tests where no object store is available.
type LocalStorage struct {
	basePath string
	logger   *slog.Logger
}

var _ StorageClient = (*LocalStorage)(nil)

// NewLocalStorage creates a new local storage client
func NewLocalStorage(basePath string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		logger:   logger.With(slog.String("storage", "local")),
	}
}

func (l *LocalStorage) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// Upload saves a file under the base path
func (l *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	path := l.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.DebugContext(ctx, "file stored locally", slog.String("key", key))
	return path, nil
}

// Download reads a file from the base path
func (l *LocalStorage) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes a file from the base path
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetPresignedURL returns a file:// URL since local files need no signing
func (l *LocalStorage) GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	return "file://" + l.path(key), nil
}

// Exists checks whether a file is present under the base path
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
