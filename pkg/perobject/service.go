package perobject

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for per-object storage.
//
// Set, Get and Remove never fail: storage is created on demand and a
// missing key or a kind mismatch reads as absent. Calls addressed to
// InvalidObjectID are ignored. A Service is not safe for concurrent use; see
// the package documentation.
type Service interface {
	// Attribute operations
	SetInt(id ObjectID, key string, value int32, persist bool)
	SetFloat(id ObjectID, key string, value float32, persist bool)
	SetString(id ObjectID, key string, value string, persist bool)
	SetPointer(id ObjectID, key string, value any, cleanup CleanupFunc)

	GetInt(id ObjectID, key string) (int32, bool)
	GetFloat(id ObjectID, key string) (float32, bool)
	GetString(id ObjectID, key string) (string, bool)
	GetPointer(id ObjectID, key string) (any, bool)

	// Remove deletes key from every kind. A pointer entry's cleanup runs.
	Remove(id ObjectID, key string)

	// DetachPointer removes a pointer entry without running its cleanup and
	// hands the value back to the caller.
	DetachPointer(id ObjectID, key string) (any, bool)

	// Introspection
	Dump(id ObjectID) string
	Objects() []ObjectID
	Registry() *Registry

	// Bridge returns lifecycle handling for this service's registry.
	Bridge(native Native) *Bridge

	// Snapshot operations; they require an Archive.
	Snapshot(ctx context.Context) (uuid.UUID, error)
	Restore(ctx context.Context, snapshotID uuid.UUID) (int, error)
	ListSnapshots(ctx context.Context) ([]uuid.UUID, error)
	DeleteSnapshot(ctx context.Context, snapshotID uuid.UUID) error

	// Close destroys every storage, running all pointer cleanups.
	Close()
}
