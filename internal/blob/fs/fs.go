// Package fs stores attachment blobs as plain files under one uploads
// directory, the layout the original deployment used.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tahmid/projecthub/internal/blob"
)

// Store writes blobs under a root directory, one file per key.
type Store struct {
	root string
}

var _ blob.Store = (*Store)(nil)

// New creates the root directory if needed and returns a Store over it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob/fs: creating upload dir: %w", err)
	}
	return &Store{root: root}, nil
}

// path resolves a key inside the root. Keys are flattened with Base so a
// crafted filename cannot escape the uploads directory.
func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.Base(key))
}

// Put writes the blob, truncating any existing file at the same key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("blob/fs: creating %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("blob/fs: writing %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("blob/fs: closing %s: %w", key, err)
	}
	return nil
}

// Get opens the blob for reading.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("blob/fs: opening %s: %w", key, err)
	}
	return f, nil
}
