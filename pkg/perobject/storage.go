package perobject

import (
	"fmt"
	"strings"
)

// ObjectStorage holds every attribute attached to one object identity.
type ObjectStorage struct {
	owner     ObjectID
	cloned    bool
	destroyed bool
	attrs     *AttributeMap
}

// NewObjectStorage returns empty storage owned by owner. Storage normally
// comes from Registry.GetOrCreate; this constructor exists for callers that
// stage storage before handing it to Registry.Replace.
func NewObjectStorage(owner ObjectID) *ObjectStorage {
	return &ObjectStorage{
		owner: owner,
		attrs: NewAttributeMap(),
	}
}

// Owner returns the identity this storage shadows.
func (s *ObjectStorage) Owner() ObjectID { return s.owner }

// Cloned reports whether the storage received entries through CloneFrom.
func (s *ObjectStorage) Cloned() bool { return s.cloned }

// Attributes exposes the typed maps.
func (s *ObjectStorage) Attributes() *AttributeMap { return s.attrs }

// Len counts entries of every kind.
func (s *ObjectStorage) Len() int { return s.attrs.Len() }

// CloneFrom copies every persistent int, float and string entry of other
// into s, overwriting entries with the same key. Transient and pointer
// entries are not copied. It returns the number of entries copied.
func (s *ObjectStorage) CloneFrom(other *ObjectStorage) int {
	if other == nil || other == s {
		return 0
	}

	copied := 0
	other.attrs.ints.Each(func(key string, e Entry[int32]) {
		if e.Persist {
			s.attrs.ints.Set(key, e.Value, true)
			copied++
		}
	})
	other.attrs.floats.Each(func(key string, e Entry[float32]) {
		if e.Persist {
			s.attrs.floats.Set(key, e.Value, true)
			copied++
		}
	})
	other.attrs.texts.Each(func(key string, e Entry[string]) {
		if e.Persist {
			s.attrs.texts.Set(key, e.Value, true)
			copied++
		}
	})

	s.cloned = true
	return copied
}

// Serialize encodes the int, float and string entries into a blob. With
// persistOnly set, transient entries are left out. Pointer entries are never
// encoded.
func (s *ObjectStorage) Serialize(persistOnly bool) string {
	var b strings.Builder
	s.attrs.ints.Each(func(key string, e Entry[int32]) {
		if e.Persist || !persistOnly {
			appendRecord(&b, blobTagInt, key, formatInt(e.Value))
		}
	})
	s.attrs.floats.Each(func(key string, e Entry[float32]) {
		if e.Persist || !persistOnly {
			appendRecord(&b, blobTagFloat, key, formatFloat(e.Value))
		}
	})
	s.attrs.texts.Each(func(key string, e Entry[string]) {
		if e.Persist || !persistOnly {
			appendRecord(&b, blobTagString, key, e.Value)
		}
	})
	return b.String()
}

// Deserialize decodes blob and stores each entry with the given persist
// flag. Decoding stops at the first record whose framing is broken; a record
// with intact framing but an unparsable value is skipped. Entries decoded
// before a fault are kept. It returns the number of entries stored and, when
// anything was skipped, an error wrapping ErrMalformedBlob.
func (s *ObjectStorage) Deserialize(blob string, persist bool) (int, error) {
	d := &blobDecoder{src: blob}
	stored := 0
	var firstErr error

	for !d.done() {
		start := d.pos
		rec, err := d.next()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}

		switch rec.tag {
		case blobTagInt:
			v, err := parseInt(rec.value)
			if err != nil {
				firstErr = firstOf(firstErr, &BlobError{Offset: start, Reason: "bad int for " + rec.key})
				continue
			}
			s.attrs.ints.Set(rec.key, v, persist)
		case blobTagFloat:
			v, err := parseFloat(rec.value)
			if err != nil {
				firstErr = firstOf(firstErr, &BlobError{Offset: start, Reason: "bad float for " + rec.key})
				continue
			}
			s.attrs.floats.Set(rec.key, v, persist)
		case blobTagString:
			s.attrs.texts.Set(rec.key, rec.value, persist)
		}
		stored++
	}

	return stored, firstErr
}

func firstOf(current, next error) error {
	if current != nil {
		return current
	}
	return next
}

// DumpToString renders every map for debugging. The output is not a
// persistence format.
func (s *ObjectStorage) DumpToString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ObjectStorage for %s (cloned: %t)\n", s.owner, s.cloned)

	s.attrs.ints.Each(func(key string, e Entry[int32]) {
		fmt.Fprintf(&b, "  int     %q = %d%s\n", key, e.Value, persistSuffix(e.Persist))
	})
	s.attrs.floats.Each(func(key string, e Entry[float32]) {
		fmt.Fprintf(&b, "  float   %q = %s%s\n", key, formatFloat(e.Value), persistSuffix(e.Persist))
	})
	s.attrs.texts.Each(func(key string, e Entry[string]) {
		fmt.Fprintf(&b, "  string  %q = %q%s\n", key, e.Value, persistSuffix(e.Persist))
	})
	for _, key := range s.attrs.pointers.Keys() {
		e := s.attrs.pointers.data[key]
		cleanup := ""
		if e.Cleanup != nil {
			cleanup = " [cleanup]"
		}
		fmt.Fprintf(&b, "  pointer %q = %T%s\n", key, e.Value, cleanup)
	}
	return b.String()
}

func persistSuffix(persist bool) string {
	if persist {
		return " [persist]"
	}
	return ""
}

// Destroy runs every pointer cleanup once and empties the maps. Calling it
// again does nothing.
func (s *ObjectStorage) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.attrs.release()
}
