package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/per-object-storage/pkg/perobject"
)

// Backend is an in-memory implementation of the perobject.Archive interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory archive
func New() perobject.Archive {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// Put stores the reader's content under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = data
	return nil
}

// Get returns a reader over a copy of the stored content
func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", perobject.ErrArchiveKeyNotFound, key)
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return fmt.Errorf("%w: %s", perobject.ErrArchiveKeyNotFound, key)
	}

	delete(b.objects, key)
	return nil
}

// List returns the keys under prefix in order
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
