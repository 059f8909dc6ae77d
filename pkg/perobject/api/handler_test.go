package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/per-object-storage/pkg/perobject"
	memoryarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/memory"
)

// setupHandlerTest creates a Handler over an in-memory service for testing
func setupHandlerTest(t *testing.T, opts ...HandlerOption) (*Handler, http.Handler, perobject.Service) {
	svc, err := perobject.New(perobject.WithArchive(memoryarchive.New()))
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	handler := NewHandler(svc, nil, opts...)
	return handler, handler.Routes(), svc
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestParseObjectID(t *testing.T) {
	id, err := ParseObjectID("0000002a")
	require.NoError(t, err)
	assert.Equal(t, perobject.ObjectID(42), id)

	id, err = ParseObjectID("2A")
	require.NoError(t, err)
	assert.Equal(t, perobject.ObjectID(42), id)

	_, err = ParseObjectID("7f000000")
	assert.ErrorIs(t, err, perobject.ErrInvalidObject)

	_, err = ParseObjectID("zz")
	assert.Error(t, err)
	_, err = ParseObjectID("100000000")
	assert.Error(t, err)
}

func TestHandler_SetGetAttribute(t *testing.T) {
	_, router, svc := setupHandlerTest(t)

	tests := []struct {
		kind  string
		key   string
		value interface{}
		want  interface{}
	}{
		{"int", "hp", 42, float64(42)},
		{"float", "speed", 1.5, float64(1.5)},
		{"string", "name", "Bob", "Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			path := "/objects/0000002a/attributes/" + tt.kind + "/" + tt.key
			w := do(t, router, http.MethodPut, path, map[string]interface{}{"value": tt.value, "persist": true})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			w = do(t, router, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp AttributeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "0000002a", resp.ObjectID)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.key, resp.Key)
			assert.Equal(t, tt.want, resp.Value)
		})
	}

	hp, ok := svc.GetInt(42, "hp")
	require.True(t, ok)
	assert.Equal(t, int32(42), hp)
	assert.Equal(t, "I2:hp2:42F5:speed3:1.5S4:name3:Bob", mustStorage(t, svc, 42).Serialize(true))
}

func mustStorage(t *testing.T, svc perobject.Service, id perobject.ObjectID) *perobject.ObjectStorage {
	t.Helper()
	st, ok := svc.Registry().Lookup(id)
	require.True(t, ok)
	return st
}

func TestHandler_SetAttribute_Invalid(t *testing.T) {
	_, router, _ := setupHandlerTest(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"int overflow", "/objects/00000001/attributes/int/k", map[string]interface{}{"value": 1 << 40}},
		{"int from string", "/objects/00000001/attributes/int/k", map[string]interface{}{"value": "7"}},
		{"float from string", "/objects/00000001/attributes/float/k", map[string]interface{}{"value": "x"}},
		{"string from number", "/objects/00000001/attributes/string/k", map[string]interface{}{"value": 3}},
		{"pointer", "/objects/00000001/attributes/pointer/k", map[string]interface{}{"value": 1}},
		{"unknown kind", "/objects/00000001/attributes/vector/k", map[string]interface{}{"value": 1}},
		{"invalid object", "/objects/7f000000/attributes/int/k", map[string]interface{}{"value": 1}},
		{"bad object id", "/objects/xyz/attributes/int/k", map[string]interface{}{"value": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandler_GetAttribute_NotFound(t *testing.T) {
	_, router, svc := setupHandlerTest(t)
	svc.SetString(1, "k", "v", false)

	w := do(t, router, http.MethodGet, "/objects/00000001/attributes/int/k", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetPointerAttribute(t *testing.T) {
	_, router, svc := setupHandlerTest(t)
	svc.SetPointer(1, "conn", &bytes.Buffer{}, nil)

	w := do(t, router, http.MethodGet, "/objects/00000001/attributes/pointer/conn", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AttributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "*bytes.Buffer", resp.Value)
}

func TestHandler_RemoveAttribute(t *testing.T) {
	_, router, svc := setupHandlerTest(t)

	var cleanups int
	svc.SetInt(1, "k", 1, true)
	svc.SetPointer(1, "k", 1, func(interface{}) { cleanups++ })

	w := do(t, router, http.MethodDelete, "/objects/00000001/attributes/k", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, ok := svc.GetInt(1, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, cleanups)
}

func TestHandler_ListAndDumpObjects(t *testing.T) {
	_, router, svc := setupHandlerTest(t)
	svc.SetInt(2, "b", 1, true)
	svc.SetInt(1, "a", 1, false)

	w := do(t, router, http.MethodGet, "/objects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Equal(t, []string{"00000001", "00000002"}, ids)

	w = do(t, router, http.MethodGet, "/objects/00000002", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `int     "b" = 1 [persist]`)
}

func TestHandler_HostLifecycle(t *testing.T) {
	_, router, svc := setupHandlerTest(t)

	w := do(t, router, http.MethodPost, "/host/objects", SpawnRequest{Type: "player", Tag: "alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	var player ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &player))
	assert.Equal(t, "player", player.Type)
	assert.Equal(t, "alice", player.Tag)

	w = do(t, router, http.MethodPut, "/objects/"+player.ID+"/attributes/int/k", map[string]interface{}{"value": 7, "persist": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/host/players/"+player.ID+"/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dropped DisconnectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dropped))
	assert.Equal(t, player.ID, dropped.PlayerID)

	w = do(t, router, http.MethodPost, "/host/players/reconnect", ReconnectRequest{Tag: "alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	var again ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.NotEqual(t, player.ID, again.ID)

	w = do(t, router, http.MethodGet, "/objects/"+again.ID+"/attributes/int/k", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var attr AttributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attr))
	assert.Equal(t, float64(7), attr.Value)

	w = do(t, router, http.MethodDelete, "/host/objects/"+again.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.Objects())
}

func TestHandler_HostErrors(t *testing.T) {
	_, router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodPost, "/host/objects", SpawnRequest{Type: "dragon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/host/players/00000009/disconnect", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/host/players/reconnect", ReconnectRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/host/objects/00000009/save", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/host/load", map[string]string{"Tag": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SaveLoad(t *testing.T) {
	_, router, svc := setupHandlerTest(t)

	w := do(t, router, http.MethodPost, "/host/objects", SpawnRequest{Type: "item", Tag: "sword"})
	require.Equal(t, http.StatusCreated, w.Code)
	var item ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	id, err := ParseObjectID(item.ID)
	require.NoError(t, err)
	svc.SetInt(id, "enchant", 3, true)

	w = do(t, router, http.MethodPost, "/host/objects/"+item.ID+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Equal(t, "I7:enchant1:3", fields[perobject.FieldName])

	w = do(t, router, http.MethodPost, "/host/load", fields)
	require.Equal(t, http.StatusCreated, w.Code)
	var loaded ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, "sword", loaded.Tag)

	loadedID, err := ParseObjectID(loaded.ID)
	require.NoError(t, err)
	v, ok := svc.GetInt(loadedID, "enchant")
	require.True(t, ok)
	assert.Equal(t, int32(3), v)
}

func TestHandler_Snapshots(t *testing.T) {
	_, router, svc := setupHandlerTest(t)
	svc.SetInt(1, "k", 5, true)

	w := do(t, router, http.MethodPost, "/snapshots", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var snap SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	_, err := uuid.Parse(snap.ID)
	require.NoError(t, err)

	w = do(t, router, http.MethodGet, "/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	svc.Remove(1, "k")

	w = do(t, router, http.MethodPost, "/snapshots/"+snap.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var restored SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.Equal(t, 1, restored.Restored)

	k, ok := svc.GetInt(1, "k")
	require.True(t, ok)
	assert.Equal(t, int32(5), k)

	w = do(t, router, http.MethodDelete, "/snapshots/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodDelete, "/snapshots/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/snapshots/not-a-uuid/restore", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SnapshotsDisabled(t *testing.T) {
	svc, err := perobject.New()
	require.NoError(t, err)
	defer svc.Close()
	router := NewHandler(svc, nil).Routes()

	w := do(t, router, http.MethodPost, "/snapshots", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandler_JWTGuardsMutatingRoutes(t *testing.T) {
	handler, router, _ := setupHandlerTest(t, WithJWTSecret("test-secret"))
	require.NotNil(t, handler.TokenAuth())

	body := map[string]interface{}{"value": 1, "persist": true}

	w := do(t, router, http.MethodPut, "/objects/00000001/attributes/int/k", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Reads stay open.
	w = do(t, router, http.MethodGet, "/objects", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, token, err := handler.TokenAuth().Encode(map[string]interface{}{"sub": "tester"})
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/objects/00000001/attributes/int/k", strings.NewReader(string(data)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_NoJWTWithoutSecret(t *testing.T) {
	handler, _, _ := setupHandlerTest(t, WithJWTSecret(""))
	assert.Nil(t, handler.TokenAuth())
}
