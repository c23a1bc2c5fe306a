package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage stores uploaded blobs and exposes them under a public base
// URL. Saving and the later write of the record that references the URL are
// independent operations; a saved blob is not guaranteed to be referenced.
type FileStorage interface {
	Save(ctx context.Context, file *multipart.FileHeader, relPath string) (int64, error)
	Delete(ctx context.Context, relPath string) error
	PublicURL(relPath string) string
	BaseDir() string
}

// LocalFileStorage keeps blobs on the local filesystem.
type LocalFileStorage struct {
	baseDir string
	baseURL string
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the upload to baseDir/relPath. A cancelled context aborts the
// copy and removes the partial file.
func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, relPath string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, src)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(fullPath)
			return 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		_ = os.Remove(fullPath)
		return 0, ctx.Err()
	}

	return size, nil
}

func (s *LocalFileStorage) Delete(ctx context.Context, relPath string) error {
	return os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
}

// PublicURL builds the fetchable URL for a stored blob.
func (s *LocalFileStorage) PublicURL(relPath string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(relPath), "/")
}

func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}
