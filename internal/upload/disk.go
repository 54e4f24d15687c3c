package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage writes uploads into a fixed directory on local disk.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates a disk storage rooted at dir, creating the
// directory if missing.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStorage{dir: filepath.Clean(dir)}, nil
}

func (s *DiskStorage) Put(ctx context.Context, name string, contentType string, content io.Reader) (string, error) {
	// name comes from StoragePath and is already a base name; Base guards
	// against traversal anyway.
	path := filepath.Join(s.dir, filepath.Base(name))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}
