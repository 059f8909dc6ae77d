// Package archivetest holds the behaviour every perobject.Archive backend
// must share.
package archivetest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/per-object-storage/pkg/perobject"
)

// Run exercises archive against the Archive contract. Keys are written
// under prefix so shared backends stay isolated between runs.
func Run(t *testing.T, archive perobject.Archive, prefix string) {
	ctx := context.Background()
	key := func(k string) string { return prefix + k }

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, archive.Put(ctx, key("a/one"), strings.NewReader("I1:k1:1")))
		assert.Equal(t, "I1:k1:1", read(t, archive, key("a/one")))
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		require.NoError(t, archive.Put(ctx, key("a/one"), strings.NewReader("S1:s1:x")))
		assert.Equal(t, "S1:s1:x", read(t, archive, key("a/one")))
	})

	t.Run("EmptyValue", func(t *testing.T) {
		require.NoError(t, archive.Put(ctx, key("a/empty"), strings.NewReader("")))
		assert.Equal(t, "", read(t, archive, key("a/empty")))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, archive.Put(ctx, key("b/two"), strings.NewReader("2")))
		require.NoError(t, archive.Put(ctx, key("a/three"), strings.NewReader("3")))

		keys, err := archive.List(ctx, key("a/"))
		require.NoError(t, err)
		assert.Equal(t, []string{key("a/empty"), key("a/one"), key("a/three")}, keys)

		keys, err = archive.List(ctx, key("c/"))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := archive.Get(ctx, key("missing"))
		assert.ErrorIs(t, err, perobject.ErrArchiveKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, archive.Delete(ctx, key("a/one")))
		_, err := archive.Get(ctx, key("a/one"))
		assert.ErrorIs(t, err, perobject.ErrArchiveKeyNotFound)

		err = archive.Delete(ctx, key("a/one"))
		assert.ErrorIs(t, err, perobject.ErrArchiveKeyNotFound)

		for _, k := range []string{"a/empty", "a/three", "b/two"} {
			require.NoError(t, archive.Delete(ctx, key(k)))
		}
		keys, err := archive.List(ctx, prefix)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Snapshots", func(t *testing.T) {
		svc, err := perobject.New(perobject.WithArchive(archive))
		require.NoError(t, err)
		defer svc.Close()

		svc.SetInt(1, "hp", 42, true)
		id, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		defer func() { assert.NoError(t, svc.DeleteSnapshot(ctx, id)) }()

		other, err := perobject.New(perobject.WithArchive(archive))
		require.NoError(t, err)
		defer other.Close()

		restored, err := other.Restore(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, restored)
		hp, ok := other.GetInt(1, "hp")
		require.True(t, ok)
		assert.Equal(t, int32(42), hp)
	})
}

func read(t *testing.T, archive perobject.Archive, key string) string {
	t.Helper()
	rc, err := archive.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}
