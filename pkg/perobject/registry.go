package perobject

import (
	"log/slog"
	"sort"
)

// Registry maps object identities to their storage. It owns every
// ObjectStorage it hands out.
//
// A Registry is not safe for concurrent use. It expects every call to come
// from the host's simulation thread; callers on other goroutines must hold
// their own lock.
type Registry struct {
	storages map[ObjectID]*ObjectStorage
	hooks    *Hooks
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryHooks adds lifecycle hooks to the registry
func WithRegistryHooks(hooks *Hooks) RegistryOption {
	return func(r *Registry) {
		r.hooks.Merge(hooks)
	}
}

// WithRegistryLogger sets the registry's logger
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		storages: make(map[ObjectID]*ObjectStorage),
		hooks:    &Hooks{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// GetOrCreate returns the storage for id, creating and registering an empty
// one first if needed. It never returns nil.
func (r *Registry) GetOrCreate(id ObjectID) *ObjectStorage {
	if s, ok := r.storages[id]; ok {
		return s
	}
	s := NewObjectStorage(id)
	r.storages[id] = s
	r.hooks.executeAfterStorageCreate(s)
	return s
}

// Lookup returns the storage for id without creating it.
func (r *Registry) Lookup(id ObjectID) (*ObjectStorage, bool) {
	s, ok := r.storages[id]
	return s, ok
}

// Destroy destroys and unregisters the storage for id. It reports false, and
// does nothing, when id has no storage or its destruction is already under
// way, so repeated teardown signals are harmless.
//
// The storage stays registered while its pointer cleanups run: a cleanup
// that reaches back for the same id sees the dying storage instead of
// bringing up a fresh one.
func (r *Registry) Destroy(id ObjectID) bool {
	s, ok := r.storages[id]
	if !ok || s.destroyed {
		return false
	}
	r.hooks.executeBeforeStorageDestroy(s)
	s.Destroy()
	if cur, ok := r.storages[id]; ok && cur == s {
		delete(r.storages, id)
	}
	return true
}

// Replace installs storage for id, destroying whatever was registered
// before. The storage's owner is rewritten to id; if it was registered
// under its previous owner, it moves rather than being shared. A storage
// that has already been destroyed is rejected.
func (r *Registry) Replace(id ObjectID, storage *ObjectStorage) error {
	if storage == nil {
		r.Destroy(id)
		return nil
	}
	if storage.destroyed {
		return &StorageError{ObjectID: id, Op: "replace", Err: ErrStorageDestroyed}
	}
	if prev, ok := r.storages[id]; ok && prev == storage {
		return nil
	}
	if cur, ok := r.storages[storage.owner]; ok && cur == storage {
		delete(r.storages, storage.owner)
	}
	r.Destroy(id)
	storage.owner = id
	r.storages[id] = storage
	return nil
}

// Len returns the number of registered storages.
func (r *Registry) Len() int {
	return len(r.storages)
}

// Objects lists the identities that currently own storage, in ascending order.
func (r *Registry) Objects() []ObjectID {
	ids := make([]ObjectID, 0, len(r.storages))
	for id := range r.storages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clear destroys every storage. The host calls it once at shutdown.
func (r *Registry) Clear() {
	ids := r.Objects()
	for _, id := range ids {
		r.Destroy(id)
	}
	if len(ids) > 0 {
		r.logger.Debug("object storage registry cleared", "destroyed", len(ids))
	}
}

func (r *Registry) reportError(op string, err error) {
	r.hooks.executeOnError(op, err)
}
