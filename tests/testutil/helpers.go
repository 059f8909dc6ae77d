package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// ObjectResponse represents a host object returned by the API
type ObjectResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

// AttributeResponse represents an attribute returned by the API
type AttributeResponse struct {
	ObjectID string      `json:"object_id"`
	Kind     string      `json:"kind"`
	Key      string      `json:"key"`
	Value    interface{} `json:"value"`
}

// DoJSON sends body as JSON and returns the response. A nil body sends no
// payload. token, when set, is sent as a bearer token.
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	var reader io.Reader
	if body != nil {
		reqJSON, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// DecodeJSON reads resp into v and closes the body
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

// SpawnObject creates a host object via the API
func SpawnObject(t *testing.T, serverURL, typ, tag, token string) ObjectResponse {
	resp := DoJSON(t, http.MethodPost, serverURL+"/api/v1/host/objects",
		map[string]string{"type": typ, "tag": tag}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var obj ObjectResponse
	DecodeJSON(t, resp, &obj)
	return obj
}

// SetAttribute writes one attribute via the API
func SetAttribute(t *testing.T, serverURL, objectID, kind, key string, value interface{}, persist bool, token string) {
	resp := DoJSON(t, http.MethodPut, serverURL+"/api/v1/objects/"+objectID+"/attributes/"+kind+"/"+key,
		map[string]interface{}{"value": value, "persist": persist}, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// GetAttribute reads one attribute via the API and returns the status code
func GetAttribute(t *testing.T, serverURL, objectID, kind, key string) (AttributeResponse, int) {
	resp := DoJSON(t, http.MethodGet, serverURL+"/api/v1/objects/"+objectID+"/attributes/"+kind+"/"+key, nil, "")
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return AttributeResponse{}, resp.StatusCode
	}
	var attr AttributeResponse
	DecodeJSON(t, resp, &attr)
	return attr, resp.StatusCode
}
