package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/weather-ku/internal/weather"
)

// FileStore persists the table as a single text file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

// Load reads and parses the backing file.
func (f *FileStore) Load() (*weather.Table, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	t, err := weather.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return t, nil
}

// Save replaces the backing file with text. The content is written to a
// temporary file in the same directory and renamed over the target, so a
// failed save leaves the previous file intact.
func (f *FileStore) Save(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}
