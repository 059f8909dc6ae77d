package perobject

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectStorage_Serialize(t *testing.T) {
	s := NewObjectStorage(1)
	s.attrs.SetString("name", "Bob", true)
	s.attrs.SetInt("hp", 42, true)
	s.attrs.SetFloat("speed", 1.5, true)
	s.attrs.SetInt("ac", 12, true)
	s.attrs.SetInt("tmp", 9, false)
	s.attrs.SetPointer("handle", struct{}{}, nil)

	t.Run("persistent entries grouped by kind in key order", func(t *testing.T) {
		assert.Equal(t, "I2:ac2:12I2:hp2:42F5:speed3:1.5S4:name3:Bob", s.Serialize(true))
	})

	t.Run("transient entries included on request", func(t *testing.T) {
		assert.Equal(t, "I2:ac2:12I2:hp2:42I3:tmp1:9F5:speed3:1.5S4:name3:Bob", s.Serialize(false))
	})

	t.Run("empty storage encodes to empty blob", func(t *testing.T) {
		assert.Equal(t, "", NewObjectStorage(2).Serialize(true))
	})
}

func TestObjectStorage_PersistFilterScenario(t *testing.T) {
	obj := NewObjectStorage(7)
	obj.attrs.SetInt("hp", 42, true)
	obj.attrs.SetString("name", "Bob", false)

	blob := obj.Serialize(true)

	fresh := NewObjectStorage(7)
	n, err := fresh.Deserialize(blob, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hp, ok := fresh.attrs.GetInt("hp")
	require.True(t, ok)
	assert.Equal(t, int32(42), hp.Value)
	assert.True(t, hp.Persist)

	_, ok = fresh.attrs.GetString("name")
	assert.False(t, ok)
}

func TestObjectStorage_RoundTripIsStable(t *testing.T) {
	s := NewObjectStorage(1)
	s.attrs.SetInt("min", -2147483648, true)
	s.attrs.SetInt("max", 2147483647, true)
	s.attrs.SetFloat("tenth", 0.1, true)
	s.attrs.SetFloat("big", 1e30, true)
	s.attrs.SetFloat("neg", -0.25, true)
	s.attrs.SetString("empty", "", true)
	s.attrs.SetString("framing", "I3:abc12:S:", true)
	s.attrs.SetString("unicode", "héllo wörld", true)
	s.attrs.SetString("multi\nline", "a\nb", true)
	s.attrs.SetInt("", 5, true)

	blob := s.Serialize(true)

	restored := NewObjectStorage(2)
	n, err := restored.Deserialize(blob, true)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, blob, restored.Serialize(true))

	f, ok := restored.attrs.GetFloat("tenth")
	require.True(t, ok)
	assert.Equal(t, float32(0.1), f.Value)

	str, ok := restored.attrs.GetString("framing")
	require.True(t, ok)
	assert.Equal(t, "I3:abc12:S:", str.Value)
}

func TestObjectStorage_DeserializePersistFlag(t *testing.T) {
	s := NewObjectStorage(1)
	n, err := s.Deserialize("I1:x1:3", false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, ok := s.attrs.GetInt("x")
	require.True(t, ok)
	assert.False(t, e.Persist)
	assert.Equal(t, "", s.Serialize(true))
}

func TestObjectStorage_DeserializeOverwrites(t *testing.T) {
	s := NewObjectStorage(1)
	s.attrs.SetInt("hp", 1, false)
	s.attrs.SetInt("keep", 2, false)

	_, err := s.Deserialize("I2:hp2:99", true)
	require.NoError(t, err)

	hp, _ := s.attrs.GetInt("hp")
	assert.Equal(t, int32(99), hp.Value)
	assert.True(t, hp.Persist)
	_, ok := s.attrs.GetInt("keep")
	assert.True(t, ok)
}

func TestObjectStorage_DeserializeMalformed(t *testing.T) {
	tests := []struct {
		name     string
		blob     string
		stored   int
		offset   int
		wantInts map[string]int32
		wantStrs map[string]string
	}{
		{
			name:     "unknown tag stops decoding",
			blob:     "I2:hp2:42Xgarbage",
			stored:   1,
			offset:   9,
			wantInts: map[string]int32{"hp": 42},
		},
		{
			name:   "truncated value",
			blob:   "I2:hp9:42",
			stored: 0,
		},
		{
			name:     "missing length keeps earlier records",
			blob:     "S4:name3:BobI:hp",
			stored:   1,
			offset:   12,
			wantStrs: map[string]string{"name": "Bob"},
		},
		{
			name:     "bad int value is skipped",
			blob:     "I2:hp3:abcS4:name3:Bob",
			stored:   1,
			wantStrs: map[string]string{"name": "Bob"},
		},
		{
			name:     "bad int after a good record",
			blob:     "I1:y1:1I2:hp3:abc",
			stored:   1,
			offset:   7,
			wantInts: map[string]int32{"y": 1},
		},
		{
			name:     "int out of range is skipped",
			blob:     "I1:x10:9999999999I1:y1:1",
			stored:   1,
			wantInts: map[string]int32{"y": 1},
		},
		{
			name:     "bad float value is skipped",
			blob:     "F1:f3:1.xI1:y1:1",
			stored:   1,
			wantInts: map[string]int32{"y": 1},
		},
		{
			name:   "negative length",
			blob:   "I-1:",
			stored: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewObjectStorage(1)
			n, err := s.Deserialize(tt.blob, true)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedBlob))
			var blobErr *BlobError
			require.True(t, errors.As(err, &blobErr))
			assert.Equal(t, tt.offset, blobErr.Offset)

			assert.Equal(t, tt.stored, n)
			for k, v := range tt.wantInts {
				e, ok := s.attrs.GetInt(k)
				require.True(t, ok, k)
				assert.Equal(t, v, e.Value)
			}
			for k, v := range tt.wantStrs {
				e, ok := s.attrs.GetString(k)
				require.True(t, ok, k)
				assert.Equal(t, v, e.Value)
			}
		})
	}
}

func TestObjectStorage_CloneFrom(t *testing.T) {
	var released int
	src := NewObjectStorage(1)
	src.attrs.SetInt("k", 7, true)
	src.attrs.SetFloat("f", 2.5, true)
	src.attrs.SetString("s", "x", true)
	src.attrs.SetInt("transient", 1, false)
	src.attrs.SetPointer("p", "handle", func(any) { released++ })

	dst := NewObjectStorage(2)
	dst.attrs.SetInt("k", 1, false)
	dst.attrs.SetInt("own", 3, false)

	copied := dst.CloneFrom(src)
	assert.Equal(t, 3, copied)
	assert.True(t, dst.Cloned())
	assert.False(t, src.Cloned())

	k, _ := dst.attrs.GetInt("k")
	assert.Equal(t, int32(7), k.Value)
	assert.True(t, k.Persist)

	_, ok := dst.attrs.GetInt("transient")
	assert.False(t, ok)
	_, ok = dst.attrs.GetPointer("p")
	assert.False(t, ok)
	_, ok = dst.attrs.GetInt("own")
	assert.True(t, ok)

	// Source keeps everything.
	assert.Equal(t, 5, src.Len())

	// Destroying both runs the source's cleanup exactly once.
	dst.Destroy()
	src.Destroy()
	assert.Equal(t, 1, released)
}

func TestObjectStorage_CloneFromNilOrSelf(t *testing.T) {
	s := NewObjectStorage(1)
	s.attrs.SetInt("k", 1, true)
	assert.Equal(t, 0, s.CloneFrom(nil))
	assert.Equal(t, 0, s.CloneFrom(s))
	assert.False(t, s.Cloned())
}

func TestObjectStorage_DestroyIdempotent(t *testing.T) {
	var calls int
	s := NewObjectStorage(1)
	s.attrs.SetPointer("p", 1, func(any) { calls++ })
	s.attrs.SetInt("i", 1, true)

	s.Destroy()
	s.Destroy()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Len())
}

func TestObjectStorage_DumpToString(t *testing.T) {
	s := NewObjectStorage(0x2a)
	s.attrs.SetInt("hp", 42, true)
	s.attrs.SetFloat("speed", 1.5, false)
	s.attrs.SetString("name", "Bob", true)
	s.attrs.SetPointer("handle", &struct{}{}, func(any) {})

	dump := s.DumpToString()
	assert.Contains(t, dump, "ObjectStorage for 0000002a (cloned: false)")
	assert.Contains(t, dump, `int     "hp" = 42 [persist]`)
	assert.Contains(t, dump, `float   "speed" = 1.5`)
	assert.NotContains(t, dump, `"speed" = 1.5 [persist]`)
	assert.Contains(t, dump, `string  "name" = "Bob" [persist]`)
	assert.Contains(t, dump, `pointer "handle" = *struct {} [cleanup]`)
}
