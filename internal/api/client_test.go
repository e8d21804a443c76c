// ABOUTME: Tests for the backend HTTP client against the in-memory fake backend
// ABOUTME: Covers CRUD calls, bearer headers, stream opening and error classification

package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/auth"
	"github.com/HarshalVankudre/digitalocean/internal/fakebackend"
)

func newTestClient(t *testing.T, opts fakebackend.Options, token string) (*api.Client, *fakebackend.Server) {
	t.Helper()
	backend := fakebackend.New(opts)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL+"/", auth.StaticSource(token)), backend
}

func TestClient_ConversationLifecycle(t *testing.T) {
	client, backend := newTestClient(t, fakebackend.Options{}, "tok")
	ctx := context.Background()

	created, err := client.CreateConversation(ctx, "First")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "First", created.Title)
	assert.False(t, created.CreatedAt.IsZero())

	second, err := client.CreateConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "New chat", second.Title, "backend applies its default title")

	list, err := client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	renamed, err := client.RenameConversation(ctx, created.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)

	require.NoError(t, client.DeleteConversation(ctx, second.ID))
	assert.Equal(t, 1, backend.Count())

	assert.Equal(t, "Bearer tok", backend.LastAuthorization())
}

func TestClient_GetConversationAndSend(t *testing.T) {
	client, backend := newTestClient(t, fakebackend.Options{
		Reply: func(string) string { return "ok" },
	}, "")
	ctx := context.Background()
	id := backend.Seed("Seeded", api.Message{Role: "user", Content: "earlier"})

	msg, err := client.SendMessage(ctx, id, "hello")
	require.NoError(t, err)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "ok", msg.Content)
	assert.NotEmpty(t, msg.ID)

	detail, err := client.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Seeded", detail.Title)
	require.Len(t, detail.Messages, 3)
	assert.Equal(t, "earlier", detail.Messages[0].Content)
	assert.Equal(t, "hello", detail.Messages[1].Content)
	assert.Equal(t, "ok", detail.Messages[2].Content)

	assert.Equal(t, "Bearer ", backend.LastAuthorization(), "empty token is still sent")
}

func TestClient_NotFound(t *testing.T) {
	client, _ := newTestClient(t, fakebackend.Options{}, "")

	_, err := client.GetConversation(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrNotFound))
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Conversation not found", statusErr.Detail)
}

func TestClient_Unauthorized(t *testing.T) {
	verifier := auth.NewJWTVerifier([]byte("secret"))
	client, _ := newTestClient(t, fakebackend.Options{Verifier: verifier}, "")

	_, err := client.ListConversations(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	token, err := verifier.Generate("user-1", time.Hour)
	require.NoError(t, err)
	backend := fakebackend.New(fakebackend.Options{Verifier: verifier})
	srv := httptest.NewServer(backend)
	defer srv.Close()

	_, err = api.NewClient(srv.URL, auth.StaticSource(token)).ListConversations(context.Background())
	assert.NoError(t, err)
}

func TestClient_OpenStream(t *testing.T) {
	client, backend := newTestClient(t, fakebackend.Options{
		Split: fakebackend.Fixed("Hi", " there"),
	}, "tok")
	id := backend.Seed("")

	body, err := client.OpenStream(context.Background(), id, "hello")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: Hi\n\ndata:  there\n\ndata: [DONE]\n\n", string(data))
	assert.Equal(t, 1, backend.StreamCalls())
}

func TestClient_OpenStreamFailures(t *testing.T) {
	t.Run("non-success status", func(t *testing.T) {
		client, backend := newTestClient(t, fakebackend.Options{FailStreamOpen: http.StatusServiceUnavailable}, "")
		id := backend.Seed("")

		_, err := client.OpenStream(context.Background(), id, "hello")

		require.ErrorIs(t, err, api.ErrStreamUnavailable)
		var statusErr *api.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		client, _ := newTestClient(t, fakebackend.Options{}, "")

		_, err := client.OpenStream(context.Background(), "gone", "hello")

		assert.ErrorIs(t, err, api.ErrStreamUnavailable)
		assert.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := api.NewClient(url, nil).OpenStream(context.Background(), "id", "hello")
		assert.ErrorIs(t, err, api.ErrStreamUnavailable)
	})
}

func TestStatusError_Detail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"fastapi detail", `{"detail":"Agent endpoint not configured by admin"}`, "Agent endpoint not configured by admin"},
		{"error field", `{"error":"agent unavailable"}`, "agent unavailable"},
		{"validation list", `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"plain text", "bad gateway\n", "bad gateway"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := api.NewClient(srv.URL, nil).ListConversations(context.Background())

			var statusErr *api.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
			assert.Equal(t, tt.detail, statusErr.Detail)
			assert.False(t, errors.Is(err, api.ErrNotFound))
		})
	}
}

func TestConversation_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Chat", api.Conversation{}.DisplayTitle())
	assert.Equal(t, "Trip", api.Conversation{Title: "Trip"}.DisplayTitle())
}

func TestClient_TimeoutAppliesToGivenHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	orders := map[string][]api.Option{
		"timeout first": {api.WithTimeout(50 * time.Millisecond), api.WithHTTPClient(srv.Client())},
		"client first":  {api.WithHTTPClient(srv.Client()), api.WithTimeout(50 * time.Millisecond)},
	}
	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			client := api.NewClient(srv.URL, nil, opts...)

			start := time.Now()
			_, err := client.ListConversations(context.Background())

			require.Error(t, err)
			var netErr interface{ Timeout() bool }
			require.ErrorAs(t, err, &netErr)
			assert.True(t, netErr.Timeout())
			assert.Less(t, time.Since(start), time.Second)
		})
	}
	assert.Zero(t, srv.Client().Timeout, "the given client is not modified")
}
