package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Local writes objects under a directory on disk.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Put writes to a temp file in the same directory and renames it into place.
func (l *Local) Put(_ context.Context, name string, data []byte, _ string) error {
	tmp, err := os.CreateTemp(l.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Open returns the file for reading.
func (l *Local) Open(_ context.Context, name string) (*Object, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return &Object{ReadCloser: f, Size: info.Size(), ContentType: "application/pdf"}, nil
}

// Delete removes the file.
func (l *Local) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
