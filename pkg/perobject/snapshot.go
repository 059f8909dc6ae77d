package perobject

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Snapshot layout inside an Archive:
//
//	snapshots/<uuid>/manifest      object count and creation time
//	snapshots/<uuid>/<objectID>    one persistent blob per object (hex id)
const (
	snapshotPrefix   = "snapshots/"
	snapshotManifest = "manifest"
)

func snapshotRoot(id uuid.UUID) string {
	return snapshotPrefix + id.String() + "/"
}

func snapshotObjectKey(id uuid.UUID, oid ObjectID) string {
	return snapshotRoot(id) + oid.String()
}

// Snapshot writes the persistent blob of every registered object to the
// archive and returns the new snapshot's id. Objects with no persistent
// entries are skipped.
func (s *service) Snapshot(ctx context.Context) (uuid.UUID, error) {
	if s.archive == nil {
		return uuid.Nil, ErrNoArchive
	}

	id := uuid.New()
	var written []string
	for _, oid := range s.registry.Objects() {
		st, _ := s.registry.Lookup(oid)
		blob := st.Serialize(true)
		if blob == "" {
			continue
		}
		key := snapshotObjectKey(id, oid)
		if err := s.archive.Put(ctx, key, strings.NewReader(blob)); err != nil {
			s.discardPartialSnapshot(ctx, id, written)
			return uuid.Nil, &StorageError{ObjectID: oid, Op: "snapshot", Err: err}
		}
		written = append(written, key)
	}

	manifest := fmt.Sprintf("objects=%d\ncreated=%s\n", len(written), time.Now().UTC().Format(time.RFC3339))
	if err := s.archive.Put(ctx, snapshotRoot(id)+snapshotManifest, strings.NewReader(manifest)); err != nil {
		s.discardPartialSnapshot(ctx, id, written)
		return uuid.Nil, fmt.Errorf("failed to write snapshot manifest: %w", err)
	}

	s.logger.Info("object storage snapshot written", "snapshot_id", id, "objects", len(written))
	return id, nil
}

// discardPartialSnapshot removes the blobs of a snapshot that failed before
// its manifest was written. Failures are logged; the original error wins.
func (s *service) discardPartialSnapshot(ctx context.Context, id uuid.UUID, keys []string) {
	for _, key := range keys {
		if err := s.archive.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to discard partial snapshot blob", "snapshot_id", id, "key", key, "err", err)
		}
	}
}

// Restore loads every blob of a snapshot back into the registry as
// persistent entries, merging with whatever storage already exists. It
// returns the number of objects restored. Corrupt blobs are partially
// recovered and reported through the OnError hooks.
func (s *service) Restore(ctx context.Context, snapshotID uuid.UUID) (int, error) {
	if s.archive == nil {
		return 0, ErrNoArchive
	}

	keys, err := s.archive.List(ctx, snapshotRoot(snapshotID))
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshot %s: %w", snapshotID, err)
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}

	restored := 0
	for _, key := range keys {
		name := strings.TrimPrefix(key, snapshotRoot(snapshotID))
		if name == snapshotManifest {
			continue
		}
		raw, err := strconv.ParseUint(name, 16, 32)
		if err != nil {
			s.logger.Warn("skipping unrecognised snapshot key", "key", key)
			continue
		}
		oid := ObjectID(raw)
		if !oid.Valid() {
			continue
		}

		blob, err := s.readArchive(ctx, key)
		if err != nil {
			return restored, &StorageError{ObjectID: oid, Op: "restore", Err: err}
		}

		if _, err := s.registry.GetOrCreate(oid).Deserialize(blob, true); err != nil {
			s.logger.Warn("partially recovered object storage", "object_id", oid, "error", err)
			s.registry.reportError("restore", &StorageError{ObjectID: oid, Op: "restore", Err: err})
		}
		restored++
	}

	s.logger.Info("object storage snapshot restored", "snapshot_id", snapshotID, "objects", restored)
	return restored, nil
}

func (s *service) readArchive(ctx context.Context, key string) (string, error) {
	rc, err := s.archive.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// ListSnapshots returns the ids of every snapshot with a manifest.
func (s *service) ListSnapshots(ctx context.Context) ([]uuid.UUID, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}

	keys, err := s.archive.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var ids []uuid.UUID
	for _, key := range keys {
		rest := strings.TrimPrefix(key, snapshotPrefix)
		dir, name, ok := strings.Cut(rest, "/")
		if !ok || name != snapshotManifest {
			continue
		}
		id, err := uuid.Parse(dir)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// DeleteSnapshot removes every key of a snapshot.
func (s *service) DeleteSnapshot(ctx context.Context, snapshotID uuid.UUID) error {
	if s.archive == nil {
		return ErrNoArchive
	}

	keys, err := s.archive.List(ctx, snapshotRoot(snapshotID))
	if err != nil {
		return fmt.Errorf("failed to list snapshot %s: %w", snapshotID, err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	for _, key := range keys {
		if err := s.archive.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
