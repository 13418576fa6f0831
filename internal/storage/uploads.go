// Package storage manages the on-disk lifetime of uploaded audio.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// UploadStore writes uploaded audio into a flat directory. Files are
// per-request temporaries: the request that saved a file removes it, and
// the pruner sweeps anything a crashed request left behind.
type UploadStore struct {
	dir string
}

// NewUploadStore creates the upload directory if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save streams r to a new file named by a random id plus the original
// extension. The write is atomic: temp file then rename. Returns the
// final path and the byte count.
func (s *UploadStore) Save(r io.Reader, originalFilename string) (string, int64, error) {
	name := uuid.NewString() + filepath.Ext(originalFilename)
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("rename: %w", err)
	}
	return path, n, nil
}

// Remove deletes an uploaded file. Missing files are not an error.
func (s *UploadStore) Remove(path string) {
	os.Remove(path)
}

// Dir returns the upload directory path.
func (s *UploadStore) Dir() string { return s.dir }
