package perobject

import (
	"context"
	"io"
)

// Archive stores snapshot blobs outside the host's own save files.
// Implementations live under archive/.
type Archive interface {
	// Put writes the reader's content under key, replacing any previous value
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the content stored under key. Missing keys return an error
	// wrapping ErrArchiveKeyNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Missing keys return an error wrapping
	// ErrArchiveKeyNotFound.
	Delete(ctx context.Context, key string) error

	// List returns every key starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}
