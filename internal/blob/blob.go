// Package blob abstracts where attachment bytes live. Metadata stays in
// the relational store; the bytes go through a Store keyed by
// model.BlobKey. Writing an existing key overwrites it silently, which is
// exactly the observable behaviour for duplicate filenames in a project.
package blob

import (
	"context"
	"io"
)

// Store persists attachment bytes under deterministic keys.
type Store interface {
	// Put writes the object, replacing any existing object at key.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Get opens the object for reading. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
