package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	fileSuffix      = ".json"
	filePermissions = 0o644
)

// FileBackend stores each collection as <dir>/<collection>.json.
// Saves go through a temp file and a rename, so a reader sees either the
// previous unit or the new one.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing a collection
func (b *FileBackend) Path(collection string) string {
	return filepath.Join(b.dir, collection+fileSuffix)
}

// Load reads the whole unit
func (b *FileBackend) Load(_ context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoUnit
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Save overwrites the whole unit
func (b *FileBackend) Save(_ context.Context, collection string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, b.Path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Ping checks that the data directory is still there
func (b *FileBackend) Ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

// Close is a no-op for files
func (b *FileBackend) Close() error { return nil }
