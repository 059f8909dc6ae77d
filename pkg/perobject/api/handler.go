package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/per-object-storage/pkg/perobject"
	"github.com/tendant/per-object-storage/pkg/perobject/simhost"
)

// AttributeRequest is the request body for setting an attribute
type AttributeRequest struct {
	Value   json.RawMessage `json:"value"`
	Persist bool            `json:"persist"`
}

// AttributeResponse is the response body for an attribute
type AttributeResponse struct {
	ObjectID string      `json:"object_id"`
	Kind     string      `json:"kind"`
	Key      string      `json:"key"`
	Value    interface{} `json:"value"`
}

// SpawnRequest is the request body for creating a host object
type SpawnRequest struct {
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

// ReconnectRequest is the request body for reconnecting a player
type ReconnectRequest struct {
	Tag string `json:"tag"`
}

// ObjectResponse is the response body for a host object
type ObjectResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

// DisconnectResponse is the response body for a player disconnect
type DisconnectResponse struct {
	PlayerID string `json:"player_id"`
	TURDID   string `json:"turd_id"`
}

// SnapshotResponse is the response body for snapshot operations
type SnapshotResponse struct {
	ID       string `json:"id"`
	Restored int    `json:"restored,omitempty"`
}

// Handler serves per-object storage and the simulated host over HTTP.
//
// The storage core is single-threaded, so every request runs under one
// mutex.
type Handler struct {
	mu      sync.Mutex
	service perobject.Service
	host    *simhost.Host
	auth    *jwtauth.JWTAuth
	logger  *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithJWTSecret guards mutating routes with HS256 bearer tokens signed by
// secret. An empty secret leaves them open.
func WithJWTSecret(secret string) HandlerOption {
	return func(h *Handler) {
		if secret != "" {
			h.auth = jwtauth.New("HS256", []byte(secret), nil)
		}
	}
}

// WithHandlerLogger sets the handler's logger
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a new handler. A nil host gets a simulated host over
// service.
func NewHandler(service perobject.Service, host *simhost.Host, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if host == nil {
		host = simhost.New(service, h.logger)
	}
	h.host = host
	return h
}

// TokenAuth returns the JWT authority guarding mutating routes, or nil.
func (h *Handler) TokenAuth() *jwtauth.JWTAuth {
	return h.auth
}

// Routes returns the routes for per-object storage
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.serialize)

	r.Get("/objects", h.ListObjects)
	r.Get("/objects/{id}", h.DumpObject)
	r.Get("/objects/{id}/attributes/{kind}/{key}", h.GetAttribute)
	r.Get("/host/objects", h.ListHostObjects)
	r.Get("/snapshots", h.ListSnapshots)

	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(jwtauth.Verifier(h.auth))
			r.Use(jwtauth.Authenticator)
		}

		r.Put("/objects/{id}/attributes/{kind}/{key}", h.SetAttribute)
		r.Delete("/objects/{id}/attributes/{key}", h.RemoveAttribute)

		r.Post("/host/objects", h.Spawn)
		r.Delete("/host/objects/{id}", h.Destroy)
		r.Post("/host/objects/{id}/save", h.Save)
		r.Post("/host/load", h.Load)
		r.Post("/host/players/{id}/disconnect", h.Disconnect)
		r.Post("/host/players/reconnect", h.Reconnect)

		r.Post("/snapshots", h.CreateSnapshot)
		r.Post("/snapshots/{id}/restore", h.RestoreSnapshot)
		r.Delete("/snapshots/{id}", h.DeleteSnapshot)
	})

	return r
}

func (h *Handler) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// ParseObjectID reads an object id in the host's hex notation.
func ParseObjectID(s string) (perobject.ObjectID, error) {
	raw, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return perobject.InvalidObjectID, fmt.Errorf("invalid object id %q", s)
	}
	id := perobject.ObjectID(raw)
	if !id.Valid() {
		return perobject.InvalidObjectID, perobject.ErrInvalidObject
	}
	return id, nil
}

func (h *Handler) objectID(w http.ResponseWriter, r *http.Request) (perobject.ObjectID, bool) {
	id, err := ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid object ID", http.StatusBadRequest)
		return perobject.InvalidObjectID, false
	}
	return id, true
}

func (h *Handler) snapshotID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid snapshot ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// ListObjects lists the ids that currently own storage
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	ids := h.service.Objects()
	resp := make([]string, 0, len(ids))
	for _, id := range ids {
		resp = append(resp, id.String())
	}
	render.JSON(w, r, resp)
}

// DumpObject renders an object's storage as text
func (h *Handler) DumpObject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	render.PlainText(w, r, h.service.Dump(id))
}

// GetAttribute reads one attribute
func (h *Handler) GetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	kind, err := perobject.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key := chi.URLParam(r, "key")

	var value interface{}
	var found bool
	switch kind {
	case perobject.KindInt:
		value, found = h.service.GetInt(id, key)
	case perobject.KindFloat:
		value, found = h.service.GetFloat(id, key)
	case perobject.KindString:
		value, found = h.service.GetString(id, key)
	case perobject.KindPointer:
		var v interface{}
		v, found = h.service.GetPointer(id, key)
		value = fmt.Sprintf("%T", v)
	}
	if !found {
		http.Error(w, "Attribute not found", http.StatusNotFound)
		return
	}

	render.JSON(w, r, AttributeResponse{
		ObjectID: id.String(),
		Kind:     kind.String(),
		Key:      key,
		Value:    value,
	})
}

// SetAttribute writes one int, float or string attribute
func (h *Handler) SetAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	kind, err := perobject.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key := chi.URLParam(r, "key")

	var req AttributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var value interface{}
	switch kind {
	case perobject.KindInt:
		var v int32
		if err := json.Unmarshal(req.Value, &v); err != nil {
			http.Error(w, "Value must be a 32-bit integer", http.StatusBadRequest)
			return
		}
		h.service.SetInt(id, key, v, req.Persist)
		value = v
	case perobject.KindFloat:
		var v float32
		if err := json.Unmarshal(req.Value, &v); err != nil {
			http.Error(w, "Value must be a number", http.StatusBadRequest)
			return
		}
		h.service.SetFloat(id, key, v, req.Persist)
		value = v
	case perobject.KindString:
		var v string
		if err := json.Unmarshal(req.Value, &v); err != nil {
			http.Error(w, "Value must be a string", http.StatusBadRequest)
			return
		}
		h.service.SetString(id, key, v, req.Persist)
		value = v
	default:
		http.Error(w, "Pointer attributes cannot be set over HTTP", http.StatusBadRequest)
		return
	}

	render.JSON(w, r, AttributeResponse{
		ObjectID: id.String(),
		Kind:     kind.String(),
		Key:      key,
		Value:    value,
	})
}

// RemoveAttribute removes key from every kind
func (h *Handler) RemoveAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	h.service.Remove(id, chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

func objectResponse(obj simhost.Object) ObjectResponse {
	return ObjectResponse{ID: obj.ID.String(), Type: string(obj.Type), Tag: obj.Tag}
}

// ListHostObjects lists every live host object
func (h *Handler) ListHostObjects(w http.ResponseWriter, r *http.Request) {
	objects := h.host.Objects()
	resp := make([]ObjectResponse, 0, len(objects))
	for _, obj := range objects {
		resp = append(resp, objectResponse(obj))
	}
	render.JSON(w, r, resp)
}

// Spawn creates a host object
func (h *Handler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req SpawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	typ, err := simhost.ParseObjectType(req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := h.host.Spawn(typ, req.Tag)
	obj, _ := h.host.Lookup(id)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, objectResponse(obj))
}

// Destroy destroys a host object and its storage
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	h.host.Destroy(id)
	w.WriteHeader(http.StatusNoContent)
}

// Save writes an object into a save container and returns its fields
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	fields, err := h.host.Save(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	render.JSON(w, r, fields)
}

// Load creates an object from save container fields
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	fields := perobject.FieldMap{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := h.host.Load(fields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	obj, _ := h.host.Lookup(id)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, objectResponse(obj))
}

// Disconnect drops a TURD for a player and destroys the player object
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	turd, err := h.host.Disconnect(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	render.JSON(w, r, DisconnectResponse{PlayerID: id.String(), TURDID: turd.String()})
}

// Reconnect spawns a player for a tag, consuming its TURD
func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	var req ReconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Tag == "" {
		http.Error(w, "Tag is required", http.StatusBadRequest)
		return
	}

	id := h.host.Reconnect(req.Tag)
	obj, _ := h.host.Lookup(id)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, objectResponse(obj))
}

func (h *Handler) snapshotError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, perobject.ErrNoArchive):
		http.Error(w, "Snapshots are disabled", http.StatusNotImplemented)
	case errors.Is(err, perobject.ErrSnapshotNotFound):
		http.Error(w, "Snapshot not found", http.StatusNotFound)
	default:
		h.logger.Error("Snapshot operation failed", "operation", op, "error", err)
		http.Error(w, "Snapshot operation failed", http.StatusInternalServerError)
	}
}

// ListSnapshots lists archived snapshots
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListSnapshots(r.Context())
	if err != nil {
		h.snapshotError(w, "list", err)
		return
	}
	resp := make([]SnapshotResponse, 0, len(ids))
	for _, id := range ids {
		resp = append(resp, SnapshotResponse{ID: id.String()})
	}
	render.JSON(w, r, resp)
}

// CreateSnapshot archives every object's persistent entries
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.snapshotError(w, "create", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SnapshotResponse{ID: id.String()})
}

// RestoreSnapshot merges a snapshot back into storage
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	restored, err := h.service.Restore(r.Context(), id)
	if err != nil {
		h.snapshotError(w, "restore", err)
		return
	}
	render.JSON(w, r, SnapshotResponse{ID: id.String(), Restored: restored})
}

// DeleteSnapshot removes a snapshot from the archive
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.snapshotID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSnapshot(r.Context(), id); err != nil {
		h.snapshotError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
