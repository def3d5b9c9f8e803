// Package file implements a BlobStore backed by a single file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/userdir/internal/repository"
)

var _ repository.BlobStore = (*Store)(nil)

// Store keeps the blob in one file, replaced atomically on every write.
type Store struct{ path string }

// New constructs a file store at path. The parent directory is created on first write.
func New(path string) *Store { return &Store{path: path} }

// DefaultPath returns $XDG_CONFIG_HOME/userdir/users.json, falling back to ~/.config.
func DefaultPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "userdir", "users.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "userdir", "users.json")
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Read loads the whole file.
func (s *Store) Read(_ context.Context) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Write replaces the file via temp file + rename so readers never see a torn value.
func (s *Store) Write(_ context.Context, blob []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".users-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Clear removes the file.
func (s *Store) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
