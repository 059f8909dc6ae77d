package perobject

import "sort"

// SaveContainer is the host's save-game record for one object. The host
// owns its on-disk format; this package only reads and writes one field.
type SaveContainer interface {
	WriteField(name, value string)
	ReadField(name string) (string, bool)
}

// FieldMap is an in-memory SaveContainer.
type FieldMap map[string]string

// WriteField stores value under name.
func (m FieldMap) WriteField(name, value string) {
	m[name] = value
}

// ReadField returns the value stored under name.
func (m FieldMap) ReadField(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Fields lists the field names in order.
func (m FieldMap) Fields() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreatureSaveOptions mirrors the host's creature save flags.
type CreatureSaveOptions struct {
	StoreAssociateList bool
	UseDesiredAreaInfo bool
	ExportingChar      bool
	SaveOIDs           bool
}

// CreatureLoadOptions mirrors the host's creature load flags.
type CreatureLoadOptions struct {
	IsSaveGame      bool
	IsAssociate     bool
	PreserveItemIDs bool
	CopyObject      bool
}

// Native is the host's own handling of each lifecycle event. The Bridge
// calls through to it so storage handling augments, never replaces, what
// the host does.
type Native interface {
	DestroyObject(id ObjectID)
	DestroyArea(id ObjectID)

	// EatTURD hands a reconnecting player the state kept in turd and
	// disposes of the TURD.
	EatTURD(player, turd ObjectID)

	// DropTURD records a disconnecting player's state and returns the new
	// TURD's identity, or InvalidObjectID when no TURD was created.
	DropTURD(player ObjectID) ObjectID

	SaveObjectState(id ObjectID, c SaveContainer)
	LoadObjectState(id ObjectID, c SaveContainer)
	SaveCreature(id ObjectID, c SaveContainer, opts CreatureSaveOptions)
	LoadCreature(id ObjectID, c SaveContainer, opts CreatureLoadOptions)
}
