// ABOUTME: Tests for the fake backend's HTTP surface and failure injection
// ABOUTME: Uses raw HTTP to check status codes, ordering and stream framing

package fakebackend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarshalVankudre/digitalocean/internal/api"
)

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_ListNewestFirst(t *testing.T) {
	backend := New(Options{})
	srv := httptest.NewServer(backend)
	defer srv.Close()

	older := backend.Seed("older")
	newer := backend.Seed("newer")

	resp, err := http.Get(srv.URL + "/conversations")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []api.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)

	// Activity moves a conversation to the front
	post(t, srv.URL+"/conversations/"+older+"/messages", `{"content":"bump"}`)

	resp2, err := http.Get(srv.URL + "/conversations")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&list))
	assert.Equal(t, older, list[0].ID)
}

func TestServer_StreamRawFormat(t *testing.T) {
	backend := New(Options{Format: FormatRaw, Split: Fixed("a", "b", "c")})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	id := backend.Seed("")

	resp := post(t, srv.URL+"/conversations/"+id+"/messages/stream", `{"content":"x"}`)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", string(data))
}

func TestServer_StreamPersistsExchange(t *testing.T) {
	backend := New(Options{Reply: func(string) string { return "Hi there!" }})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	id := backend.Seed("")

	resp := post(t, srv.URL+"/conversations/"+id+"/messages/stream", `{"content":"hello"}`)
	_, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	conv, ok := backend.Conversation(id)
	require.True(t, ok)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "user", conv.Messages[0].Role)
	assert.Equal(t, "Hi there!", conv.Messages[1].Content)
}

func TestServer_AbortAfter(t *testing.T) {
	backend := New(Options{Split: Fixed("partial", " more"), AbortAfter: 1})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	id := backend.Seed("")

	resp := post(t, srv.URL+"/conversations/"+id+"/messages/stream", `{"content":"x"}`)
	data, err := io.ReadAll(resp.Body)

	assert.Error(t, err, "dropped connection surfaces as a read error")
	assert.Contains(t, string(data), "data: partial")
	assert.NotContains(t, string(data), "[DONE]")
}

func TestServer_Failures(t *testing.T) {
	backend := New(Options{
		FailStreamOpen: http.StatusBadGateway,
		FailSend:       http.StatusInternalServerError,
		FailCreate:     http.StatusServiceUnavailable,
	})
	srv := httptest.NewServer(backend)
	defer srv.Close()
	id := backend.Seed("")

	assert.Equal(t, http.StatusBadGateway, post(t, srv.URL+"/conversations/"+id+"/messages/stream", `{"content":"x"}`).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, post(t, srv.URL+"/conversations/"+id+"/messages", `{"content":"x"}`).StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, post(t, srv.URL+"/conversations", `{"title":"t"}`).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, post(t, srv.URL+"/conversations/"+id+"/messages", `{"content":""}`).StatusCode)
	assert.Equal(t, 1, backend.StreamCalls())
	assert.Equal(t, 2, backend.SendCalls())
}

func TestServer_UnknownConversation(t *testing.T) {
	backend := New(Options{})
	srv := httptest.NewServer(backend)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/conversations/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Conversation not found", body["detail"])
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"Hi", " there", " !"}, SplitWords("Hi there !"))
	assert.Equal(t, []string{"one"}, SplitWords("one"))
	assert.Nil(t, SplitWords(""))
	assert.Equal(t, "Hi there, friend", strings.Join(SplitWords("Hi there, friend"), ""))
}
