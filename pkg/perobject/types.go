package perobject

import (
	"fmt"
	"strings"
)

// ObjectID identifies one host-managed entity (creature, item, area, player
// or TURD record).
type ObjectID uint32

// InvalidObjectID is the host's null handle. Operations addressed to it are
// ignored.
const InvalidObjectID ObjectID = 0x7F000000

// String renders the id the way the host prints object handles.
func (id ObjectID) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

// Valid reports whether id can own storage.
func (id ObjectID) Valid() bool {
	return id != InvalidObjectID
}

// CleanupFunc releases an opaque value when its entry goes away. When it runs
// because the owning storage is destroyed, that storage is still registered
// but already marked destroyed; values written to it from the cleanup are
// discarded with it.
type CleanupFunc func(value any)

// Kind is the value kind of one attribute map.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindPointer
)

var kindNames = map[Kind]string{
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindPointer: "pointer",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FieldName is the save-container field that carries the persisted blob.
const FieldName = "NWNX_POS"

// NamespaceSeparator joins a plugin name and a caller key.
const NamespaceSeparator = "!"

// NamespacedKey scopes key to plugin.
func NamespacedKey(plugin, key string) string {
	return plugin + NamespaceSeparator + key
}

// Entry is a serializable attribute value with its persist flag.
type Entry[T int32 | float32 | string] struct {
	Value   T
	Persist bool
}

// PointerEntry is an opaque value and the function that releases it.
type PointerEntry struct {
	Value   any
	Cleanup CleanupFunc
}
