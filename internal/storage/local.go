package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes uploads to a flat directory on disk. Files are served
// back under the configured base URL (the /uploads route by default).
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage ensures the upload directory exists and returns a store for it.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("local storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir exposes the backing directory so the HTTP layer can serve it.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes the content to disk under a collision-free name derived from the
// original filename. Only the extension of the original name is preserved;
// everything else is replaced to keep path traversal out of the directory.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := filepath.Ext(filepath.Base(name))
	filename := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if s.baseURL == "" {
		return filename, nil
	}
	return s.baseURL + "/" + filename, nil
}
