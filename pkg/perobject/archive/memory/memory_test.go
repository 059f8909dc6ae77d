package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/per-object-storage/pkg/perobject/archive/archivetest"
	memoryarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/memory"
)

func TestMemoryBackend(t *testing.T) {
	archivetest.Run(t, memoryarchive.New(), "")
}

func TestMemoryBackend_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	backend := memoryarchive.New()
	require.NoError(t, backend.Put(ctx, "k", strings.NewReader("abc")))

	rc, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	first, err := io.ReadAll(rc)
	require.NoError(t, err)
	first[0] = 'X'

	rc, err = backend.Get(ctx, "k")
	require.NoError(t, err)
	second, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(second))
}
