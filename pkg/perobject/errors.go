package perobject

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMalformedBlob indicates a persisted blob could not be fully decoded
	ErrMalformedBlob = errors.New("malformed storage blob")

	// ErrUnknownKind indicates a value kind name that is not recognised
	ErrUnknownKind = errors.New("unknown value kind")

	// ErrNoArchive indicates a snapshot operation on a service without an archive
	ErrNoArchive = errors.New("no archive configured")

	// ErrSnapshotNotFound indicates a snapshot id with no archived objects
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrArchiveKeyNotFound is returned by Archive implementations for missing keys
	ErrArchiveKeyNotFound = errors.New("archive key not found")

	// ErrInvalidObject indicates the invalid object handle was supplied
	ErrInvalidObject = errors.New("invalid object id")

	// ErrStorageDestroyed indicates an operation on storage that was already destroyed
	ErrStorageDestroyed = errors.New("storage already destroyed")
)

// StorageError represents an error tied to one object's storage
type StorageError struct {
	ObjectID ObjectID
	Op       string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s for object %s: %v", e.Op, e.ObjectID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// BlobError describes a record of a persisted blob that could not be
// decoded. Offset is the byte position where that record starts.
type BlobError struct {
	Offset int
	Reason string
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrMalformedBlob, e.Offset, e.Reason)
}

func (e *BlobError) Unwrap() error {
	return ErrMalformedBlob
}
