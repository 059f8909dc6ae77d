package perobject

import "sort"

// valueMap is a typed key store for one serializable kind.
type valueMap[T int32 | float32 | string] struct {
	data map[string]Entry[T]
}

func newValueMap[T int32 | float32 | string]() *valueMap[T] {
	return &valueMap[T]{data: make(map[string]Entry[T])}
}

// Set inserts or overwrites key.
func (m *valueMap[T]) Set(key string, value T, persist bool) {
	m.data[key] = Entry[T]{Value: value, Persist: persist}
}

// Get returns a copy of the entry without removing it.
func (m *valueMap[T]) Get(key string) (Entry[T], bool) {
	e, ok := m.data[key]
	return e, ok
}

// Remove deletes key and reports whether it was present.
func (m *valueMap[T]) Remove(key string) bool {
	if _, ok := m.data[key]; !ok {
		return false
	}
	delete(m.data, key)
	return true
}

func (m *valueMap[T]) Len() int {
	return len(m.data)
}

// Keys returns the keys in byte order.
func (m *valueMap[T]) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each visits entries in key order.
func (m *valueMap[T]) Each(fn func(key string, e Entry[T])) {
	for _, k := range m.Keys() {
		fn(k, m.data[k])
	}
}

// pointerMap holds opaque values. Entries own the right to run their
// cleanup exactly once.
type pointerMap struct {
	data map[string]PointerEntry
}

func newPointerMap() *pointerMap {
	return &pointerMap{data: make(map[string]PointerEntry)}
}

// Set stores value under key. A previous entry's cleanup runs first.
func (m *pointerMap) Set(key string, value any, cleanup CleanupFunc) {
	if prev, ok := m.data[key]; ok {
		release(prev)
	}
	m.data[key] = PointerEntry{Value: value, Cleanup: cleanup}
}

func (m *pointerMap) Get(key string) (PointerEntry, bool) {
	e, ok := m.data[key]
	return e, ok
}

// Remove deletes key without running its cleanup.
func (m *pointerMap) Remove(key string) bool {
	if _, ok := m.data[key]; !ok {
		return false
	}
	delete(m.data, key)
	return true
}

// Release deletes key and runs its cleanup.
func (m *pointerMap) Release(key string) bool {
	e, ok := m.data[key]
	if !ok {
		return false
	}
	delete(m.data, key)
	release(e)
	return true
}

// Take deletes key and hands the value back to the caller, who becomes
// responsible for it.
func (m *pointerMap) Take(key string) (any, bool) {
	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	delete(m.data, key)
	return e.Value, true
}

// ReleaseAll empties the map, running every cleanup once.
func (m *pointerMap) ReleaseAll() {
	entries := m.data
	m.data = make(map[string]PointerEntry)
	for _, k := range sortedKeys(entries) {
		release(entries[k])
	}
}

func (m *pointerMap) Len() int {
	return len(m.data)
}

func (m *pointerMap) Keys() []string {
	return sortedKeys(m.data)
}

func release(e PointerEntry) {
	if e.Cleanup != nil {
		e.Cleanup(e.Value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AttributeMap groups the four independently keyed maps of one object. The
// same key may exist in several maps at once.
type AttributeMap struct {
	ints     *valueMap[int32]
	floats   *valueMap[float32]
	texts    *valueMap[string]
	pointers *pointerMap
}

// NewAttributeMap returns an empty AttributeMap.
func NewAttributeMap() *AttributeMap {
	return &AttributeMap{
		ints:     newValueMap[int32](),
		floats:   newValueMap[float32](),
		texts:    newValueMap[string](),
		pointers: newPointerMap(),
	}
}

func (a *AttributeMap) SetInt(key string, v int32, persist bool)     { a.ints.Set(key, v, persist) }
func (a *AttributeMap) SetFloat(key string, v float32, persist bool) { a.floats.Set(key, v, persist) }
func (a *AttributeMap) SetString(key string, v string, persist bool) { a.texts.Set(key, v, persist) }

// SetPointer stores an opaque value; any value already under key is
// released first.
func (a *AttributeMap) SetPointer(key string, v any, cleanup CleanupFunc) {
	a.pointers.Set(key, v, cleanup)
}

func (a *AttributeMap) GetInt(key string) (Entry[int32], bool)     { return a.ints.Get(key) }
func (a *AttributeMap) GetFloat(key string) (Entry[float32], bool) { return a.floats.Get(key) }
func (a *AttributeMap) GetString(key string) (Entry[string], bool) { return a.texts.Get(key) }
func (a *AttributeMap) GetPointer(key string) (PointerEntry, bool) { return a.pointers.Get(key) }

// Remove deletes key from the map of the given kind. Pointer entries are
// dropped without cleanup; use ReleasePointer to run it.
func (a *AttributeMap) Remove(kind Kind, key string) bool {
	switch kind {
	case KindInt:
		return a.ints.Remove(key)
	case KindFloat:
		return a.floats.Remove(key)
	case KindString:
		return a.texts.Remove(key)
	case KindPointer:
		return a.pointers.Remove(key)
	}
	return false
}

// ReleasePointer deletes a pointer entry and runs its cleanup.
func (a *AttributeMap) ReleasePointer(key string) bool {
	return a.pointers.Release(key)
}

// TakePointer deletes a pointer entry without cleanup and returns its value.
func (a *AttributeMap) TakePointer(key string) (any, bool) {
	return a.pointers.Take(key)
}

// Len counts entries across all four maps.
func (a *AttributeMap) Len() int {
	return a.ints.Len() + a.floats.Len() + a.texts.Len() + a.pointers.Len()
}

// Keys lists the keys stored under kind, sorted.
func (a *AttributeMap) Keys(kind Kind) []string {
	switch kind {
	case KindInt:
		return a.ints.Keys()
	case KindFloat:
		return a.floats.Keys()
	case KindString:
		return a.texts.Keys()
	case KindPointer:
		return a.pointers.Keys()
	}
	return nil
}

// release empties every map, running pointer cleanups once.
func (a *AttributeMap) release() {
	// A cleanup may store new pointers; those are released too.
	for a.pointers.Len() > 0 {
		a.pointers.ReleaseAll()
	}
	a.ints = newValueMap[int32]()
	a.floats = newValueMap[float32]()
	a.texts = newValueMap[string]()
}
