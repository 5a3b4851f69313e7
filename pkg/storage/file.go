package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File stores artifacts in a local directory
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required for type %q", TypeFile)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Put writes to a temp file and renames it over the target.
// The content type is not persisted.
func (f *File) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Key: key, Err: err}
	}

	target := filepath.Join(f.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &WriteError{Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &WriteError{Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
