// ABOUTME: Contract tests for the REST surface the client depends on.
// ABOUTME: Every route the API client calls must be served by the fake backend with the same shape.

package contract

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarshalVankudre/digitalocean/internal/fakebackend"
)

// expectedRoutes is the backend surface. {id} is replaced with a real id.
var expectedRoutes = []struct {
	method string
	path   string
	body   string
	status int
}{
	{http.MethodGet, "/conversations", "", http.StatusOK},
	{http.MethodPost, "/conversations", `{"title":"t"}`, http.StatusOK},
	{http.MethodGet, "/conversations/{id}", "", http.StatusOK},
	{http.MethodPatch, "/conversations/{id}", `{"title":"renamed"}`, http.StatusOK},
	{http.MethodPost, "/conversations/{id}/messages", `{"content":"hi"}`, http.StatusOK},
	{http.MethodPost, "/conversations/{id}/messages/stream", `{"content":"hi"}`, http.StatusOK},
	{http.MethodDelete, "/conversations/{id}", "", http.StatusOK},
}

func TestRESTSurface(t *testing.T) {
	backend := fakebackend.New(fakebackend.Options{})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	id := backend.Seed("contract")

	for _, r := range expectedRoutes {
		path := strings.ReplaceAll(r.path, "{id}", id)
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			var body io.Reader
			if r.body != "" {
				body = bytes.NewBufferString(r.body)
			}
			req, err := http.NewRequest(r.method, srv.URL+path, body)
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			assert.Equal(t, r.status, resp.StatusCode)
		})
	}
}

func TestConversationShape(t *testing.T) {
	backend := fakebackend.New(fakebackend.Options{})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	backend.Seed("shape")

	resp, err := srv.Client().Get(srv.URL + "/conversations")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Len(t, raw, 1)
	for _, field := range []string{"id", "title", "created_at", "updated_at"} {
		assert.Contains(t, raw[0], field)
	}
}

func TestErrorShape(t *testing.T) {
	srv := httptest.NewServer(fakebackend.New(fakebackend.Options{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/conversations/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var payload struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Conversation not found", payload.Detail)
}
