// Package simhost is a small stand-in for the simulation host. It owns an
// object table, creates and consumes TURDs, writes save containers, and
// routes every lifecycle event through a perobject.Bridge the way a real
// integration layer would.
package simhost

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/tendant/per-object-storage/pkg/perobject"
)

// ObjectType is the host-side class of an object.
type ObjectType string

const (
	TypeCreature  ObjectType = "creature"
	TypeItem      ObjectType = "item"
	TypePlaceable ObjectType = "placeable"
	TypeArea      ObjectType = "area"
	TypePlayer    ObjectType = "player"
	TypeTURD      ObjectType = "turd"
)

// ParseObjectType validates a type name.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeCreature, TypeItem, TypePlaceable, TypeArea, TypePlayer, TypeTURD:
		return t, nil
	}
	return "", fmt.Errorf("unknown object type %q", s)
}

func (t ObjectType) isCreature() bool {
	return t == TypeCreature || t == TypePlayer
}

// Native save-container fields written by the host itself.
const (
	FieldTag  = "Tag"
	FieldType = "ObjectType"
)

// Object is one entry of the host's object table.
type Object struct {
	ID   perobject.ObjectID
	Type ObjectType
	Tag  string
}

// Host simulates the host's object lifecycle.
type Host struct {
	objects map[perobject.ObjectID]*Object
	turds   map[string]perobject.ObjectID // player tag -> TURD
	nextID  perobject.ObjectID
	bridge  *perobject.Bridge
	logger  *slog.Logger
}

// New creates a host whose lifecycle events drive svc's storage.
func New(svc perobject.Service, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		objects: make(map[perobject.ObjectID]*Object),
		turds:   make(map[string]perobject.ObjectID),
		nextID:  1,
		logger:  logger,
	}
	h.bridge = svc.Bridge(native{h})
	return h
}

// Bridge returns the bridge the host routes events through.
func (h *Host) Bridge() *perobject.Bridge { return h.bridge }

// Spawn creates a new object.
func (h *Host) Spawn(typ ObjectType, tag string) perobject.ObjectID {
	id := h.nextID
	h.nextID++
	if !id.Valid() {
		id = h.nextID
		h.nextID++
	}
	h.objects[id] = &Object{ID: id, Type: typ, Tag: tag}
	return id
}

// Lookup returns the object with id.
func (h *Host) Lookup(id perobject.ObjectID) (Object, bool) {
	obj, ok := h.objects[id]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Objects lists every live object in id order.
func (h *Host) Objects() []Object {
	out := make([]Object, 0, len(h.objects))
	for _, obj := range h.objects {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TURDFor returns the TURD currently held for a player tag.
func (h *Host) TURDFor(tag string) (perobject.ObjectID, bool) {
	id, ok := h.turds[tag]
	return id, ok
}

// Destroy removes an object. Destroying an unknown id still signals the
// bridge, which tolerates it.
func (h *Host) Destroy(id perobject.ObjectID) {
	if obj, ok := h.objects[id]; ok && obj.Type == TypeArea {
		h.bridge.AreaDestroyed(id)
		return
	}
	h.bridge.ObjectDestroyed(id)
}

// Disconnect drops a TURD for player and then destroys the player object.
// It returns the TURD id.
func (h *Host) Disconnect(player perobject.ObjectID) (perobject.ObjectID, error) {
	obj, ok := h.objects[player]
	if !ok || obj.Type != TypePlayer {
		return perobject.InvalidObjectID, fmt.Errorf("object %s is not a connected player", player)
	}
	turd := h.bridge.DropTURD(player)
	h.Destroy(player)
	return turd, nil
}

// Reconnect spawns a new player object for tag and lets it consume the
// TURD left at disconnect, if one exists.
func (h *Host) Reconnect(tag string) perobject.ObjectID {
	player := h.Spawn(TypePlayer, tag)
	if turd, ok := h.turds[tag]; ok {
		h.bridge.EatTURD(player, turd)
	}
	return player
}

// Save writes the object into a fresh save container.
func (h *Host) Save(id perobject.ObjectID) (perobject.FieldMap, error) {
	obj, ok := h.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", id)
	}
	c := perobject.FieldMap{}
	if obj.Type.isCreature() {
		h.bridge.SaveCreature(id, c, perobject.CreatureSaveOptions{SaveOIDs: true})
	} else {
		h.bridge.SaveObjectState(id, c)
	}
	return c, nil
}

// Load creates a new object from a save container.
func (h *Host) Load(c perobject.SaveContainer) (perobject.ObjectID, error) {
	raw, ok := c.ReadField(FieldType)
	if !ok {
		return perobject.InvalidObjectID, fmt.Errorf("save container has no %s field", FieldType)
	}
	typ, err := ParseObjectType(raw)
	if err != nil {
		return perobject.InvalidObjectID, err
	}

	id := h.Spawn(typ, "")
	if typ.isCreature() {
		h.bridge.LoadCreature(id, c, perobject.CreatureLoadOptions{IsSaveGame: true})
	} else {
		h.bridge.LoadObjectState(id, c)
	}
	return id, nil
}

// native is the host's own handling of each event.
type native struct {
	h *Host
}

func (n native) DestroyObject(id perobject.ObjectID) {
	if obj, ok := n.h.objects[id]; ok && obj.Type == TypeTURD {
		delete(n.h.turds, obj.Tag)
	}
	delete(n.h.objects, id)
}

func (n native) DestroyArea(id perobject.ObjectID) {
	delete(n.h.objects, id)
}

func (n native) EatTURD(player, turd perobject.ObjectID) {
	obj, ok := n.h.objects[turd]
	if !ok {
		return
	}
	delete(n.h.turds, obj.Tag)
	delete(n.h.objects, turd)
	n.h.logger.Debug("turd consumed", "player", player, "turd", turd, "tag", obj.Tag)
}

func (n native) DropTURD(player perobject.ObjectID) perobject.ObjectID {
	obj, ok := n.h.objects[player]
	if !ok {
		return perobject.InvalidObjectID
	}
	if old, ok := n.h.turds[obj.Tag]; ok {
		n.h.Destroy(old)
	}
	turd := n.h.Spawn(TypeTURD, obj.Tag)
	n.h.turds[obj.Tag] = turd
	n.h.logger.Debug("turd dropped", "player", player, "turd", turd, "tag", obj.Tag)
	return turd
}

func (n native) SaveObjectState(id perobject.ObjectID, c perobject.SaveContainer) {
	obj, ok := n.h.objects[id]
	if !ok {
		return
	}
	c.WriteField(FieldType, string(obj.Type))
	c.WriteField(FieldTag, obj.Tag)
}

func (n native) LoadObjectState(id perobject.ObjectID, c perobject.SaveContainer) {
	obj, ok := n.h.objects[id]
	if !ok {
		return
	}
	if tag, ok := c.ReadField(FieldTag); ok {
		obj.Tag = tag
	}
}

func (n native) SaveCreature(id perobject.ObjectID, c perobject.SaveContainer, opts perobject.CreatureSaveOptions) {
	n.SaveObjectState(id, c)
	c.WriteField("ExportingChar", strconv.FormatBool(opts.ExportingChar))
}

func (n native) LoadCreature(id perobject.ObjectID, c perobject.SaveContainer, opts perobject.CreatureLoadOptions) {
	n.LoadObjectState(id, c)
}
