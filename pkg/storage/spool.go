package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// UploadSpool holds uploaded workbooks on disk for the duration of one
// ingestion request. Files are removed on every exit path; CleanupOlderThan
// reaps anything a crashed request left behind.
type UploadSpool struct {
	baseDir string
}

// NewUploadSpool ensures the spool directory exists and returns a handle.
func NewUploadSpool(baseDir string) (*UploadSpool, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadSpool{baseDir: baseDir}, nil
}

// Save writes one multipart upload into the spool and returns its path.
func (s *UploadSpool) Save(field string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", field, err)
	}
	defer src.Close() //nolint:errcheck

	name := fmt.Sprintf("%s-%s%s", field, uuid.NewString(), filepath.Ext(header.Filename))
	path := filepath.Join(s.baseDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create spool file for %s: %w", field, err)
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write spool file for %s: %w", field, err)
	}
	return path, nil
}

// Remove deletes a spooled file, tolerating files already gone.
func (s *UploadSpool) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}

// RemoveAll deletes a batch of spooled files, returning the first failure.
func (s *UploadSpool) RemoveAll(paths []string) error {
	var firstErr error
	for _, path := range paths {
		if err := s.Remove(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CleanupOlderThan removes spooled files older than the TTL and returns
// how many were deleted.
func (s *UploadSpool) CleanupOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := 0
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("cleanup uploads: %w", err)
	}
	return deleted, nil
}

// Path exposes the spool directory, useful in tests and logs.
func (s *UploadSpool) Path() string {
	return s.baseDir
}
