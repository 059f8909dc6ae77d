package perobject

import "log/slog"

// Bridge turns host lifecycle events into registry and storage operations.
// The integration layer calls one Bridge method from each intercepted host
// call site; the Bridge runs the host's native handling itself through the
// Native it was built with.
type Bridge struct {
	registry  *Registry
	native    Native
	fieldName string
	logger    *slog.Logger
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithSaveField overrides the save-container field carrying the blob.
func WithSaveField(name string) BridgeOption {
	return func(b *Bridge) {
		if name != "" {
			b.fieldName = name
		}
	}
}

// WithBridgeLogger sets the bridge's logger. It defaults to the registry's.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBridge wires lifecycle handling for reg. A nil native is replaced by
// NoopNative.
func NewBridge(reg *Registry, native Native, opts ...BridgeOption) *Bridge {
	if native == nil {
		native = NewNoopNative()
	}
	b := &Bridge{
		registry:  reg,
		native:    native,
		fieldName: FieldName,
		logger:    reg.logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// FieldName returns the save-container field the bridge reads and writes.
func (b *Bridge) FieldName() string { return b.fieldName }

// ObjectDestroyed handles destruction of any game object.
func (b *Bridge) ObjectDestroyed(id ObjectID) {
	b.native.DestroyObject(id)
	b.registry.Destroy(id)
}

// AreaDestroyed handles destruction of an area. Areas own storage like any
// other object.
func (b *Bridge) AreaDestroyed(id ObjectID) {
	b.native.DestroyArea(id)
	b.registry.Destroy(id)
}

// EatTURD handles a reconnecting player consuming the TURD left behind at
// disconnect. The TURD's persistent entries are cloned into the player
// before native consumption runs, since the host disposes of the TURD
// there. The TURD's storage is destroyed afterwards.
func (b *Bridge) EatTURD(player, turd ObjectID) {
	if player.Valid() && turd.Valid() {
		if src, ok := b.registry.Lookup(turd); ok {
			copied := b.registry.GetOrCreate(player).CloneFrom(src)
			b.registry.hooks.executeAfterClone(player, turd, copied)
		}
	}

	b.native.EatTURD(player, turd)

	if turd.Valid() {
		b.registry.Destroy(turd)
	}
}

// DropTURD handles a disconnecting player. Native handling creates the
// TURD; the player's persistent entries are then cloned into it. It returns
// the TURD identity reported by the host.
func (b *Bridge) DropTURD(player ObjectID) ObjectID {
	turd := b.native.DropTURD(player)
	if !player.Valid() || !turd.Valid() {
		return turd
	}

	if src, ok := b.registry.Lookup(player); ok {
		copied := b.registry.GetOrCreate(turd).CloneFrom(src)
		b.registry.hooks.executeAfterClone(turd, player, copied)
	}
	return turd
}

// SaveObjectState appends the object's persistent entries to c after the
// host has written its own fields.
func (b *Bridge) SaveObjectState(id ObjectID, c SaveContainer) {
	b.native.SaveObjectState(id, c)
	b.save(id, c)
}

// LoadObjectState restores persistent entries after the host has loaded the
// object.
func (b *Bridge) LoadObjectState(id ObjectID, c SaveContainer) {
	b.native.LoadObjectState(id, c)
	b.load(id, c)
}

// SaveCreature is SaveObjectState for creatures.
func (b *Bridge) SaveCreature(id ObjectID, c SaveContainer, opts CreatureSaveOptions) {
	b.native.SaveCreature(id, c, opts)
	b.save(id, c)
}

// LoadCreature is LoadObjectState for creatures.
func (b *Bridge) LoadCreature(id ObjectID, c SaveContainer, opts CreatureLoadOptions) {
	b.native.LoadCreature(id, c, opts)
	b.load(id, c)
}

func (b *Bridge) save(id ObjectID, c SaveContainer) {
	if c == nil || !id.Valid() {
		return
	}
	s, ok := b.registry.Lookup(id)
	if !ok {
		return
	}
	blob := s.Serialize(true)
	if blob == "" {
		return
	}
	c.WriteField(b.fieldName, blob)
	b.registry.hooks.executeAfterSave(id, blob)
}

func (b *Bridge) load(id ObjectID, c SaveContainer) {
	if c == nil || !id.Valid() {
		return
	}
	blob, ok := c.ReadField(b.fieldName)
	if !ok || blob == "" {
		return
	}

	loaded, err := b.registry.GetOrCreate(id).Deserialize(blob, true)
	if err != nil {
		serr := &StorageError{ObjectID: id, Op: "load", Err: err}
		b.logger.Warn("partially recovered object storage", "object_id", id, "loaded", loaded, "error", err)
		b.registry.reportError("load", serr)
	}
	b.registry.hooks.executeAfterLoad(id, loaded)
}
