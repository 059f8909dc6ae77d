package perobject

// NoopNative is a no-operation implementation of Native.
// Useful when the integration layer already ran the host's own handling
// before notifying the Bridge, and in tests.
type NoopNative struct {
	// TURDs maps a player to the TURD identity DropTURD reports.
	TURDs map[ObjectID]ObjectID
}

// NewNoopNative creates a new no-operation native handler
func NewNoopNative() *NoopNative {
	return &NoopNative{TURDs: make(map[ObjectID]ObjectID)}
}

// DestroyObject does nothing
func (n *NoopNative) DestroyObject(id ObjectID) {}

// DestroyArea does nothing
func (n *NoopNative) DestroyArea(id ObjectID) {}

// EatTURD does nothing
func (n *NoopNative) EatTURD(player, turd ObjectID) {}

// DropTURD returns the TURD registered for player, if any
func (n *NoopNative) DropTURD(player ObjectID) ObjectID {
	if turd, ok := n.TURDs[player]; ok {
		return turd
	}
	return InvalidObjectID
}

// SaveObjectState does nothing
func (n *NoopNative) SaveObjectState(id ObjectID, c SaveContainer) {}

// LoadObjectState does nothing
func (n *NoopNative) LoadObjectState(id ObjectID, c SaveContainer) {}

// SaveCreature does nothing
func (n *NoopNative) SaveCreature(id ObjectID, c SaveContainer, opts CreatureSaveOptions) {}

// LoadCreature does nothing
func (n *NoopNative) LoadCreature(id ObjectID, c SaveContainer, opts CreatureLoadOptions) {}
