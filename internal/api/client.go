// ABOUTME: HTTP client for the conversation backend
// ABOUTME: Conversation CRUD, single-shot messages and opening the streaming reply endpoint

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HarshalVankudre/digitalocean/internal/auth"
)

// DefaultTimeout bounds non-streaming requests.
const DefaultTimeout = 60 * time.Second

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	tokens  auth.TokenSource
	http    *http.Client
	stream  *http.Client
	logger  *slog.Logger

	timeout time.Duration // applied to http after all options; 0 keeps its own
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for non-streaming calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStreamClient replaces the client used for streaming calls. It should
// not set a Timeout, which would cut long replies.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) { c.stream = hc }
}

// WithTimeout sets the timeout for non-streaming calls, including on a
// client given to WithHTTPClient in any order. The given client is copied,
// not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL. A nil token source
// sends an empty bearer token.
func NewClient(baseURL string, tokens auth.TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = auth.StaticSource("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: DefaultTimeout},
		stream:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	c.logger = c.logger.With("component", "api")
	return c
}

// ListConversations returns the caller's conversations in backend order.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return out, nil
}

// CreateConversation creates a conversation with the given title.
func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", titleRequest{Title: title}, &out); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &out, nil
}

// RenameConversation changes a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodPatch, conversationPath(id), titleRequest{Title: title}, &out); err != nil {
		return nil, fmt.Errorf("renaming conversation %s: %w", id, err)
	}
	return &out, nil
}

// DeleteConversation deletes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, conversationPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return nil
}

// GetConversation returns a conversation with its message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var out ConversationDetail
	if err := c.do(ctx, http.MethodGet, conversationPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetching conversation %s: %w", id, err)
	}
	return &out, nil
}

// SendMessage posts content and waits for the complete assistant reply.
func (c *Client) SendMessage(ctx context.Context, id, content string) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPost, conversationPath(id)+"/messages", contentRequest{Content: content}, &out); err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	return &out, nil
}

// OpenStream posts content to the streaming endpoint and returns the open
// body. Every failure to obtain a 2xx streamable body wraps
// ErrStreamUnavailable; the caller decides whether to fall back. The caller
// must close the returned body.
func (c *Client) OpenStream(ctx context.Context, id, content string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, conversationPath(id)+"/messages/stream", contentRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamUnavailable, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", ErrStreamUnavailable, newStatusError(resp))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fmt.Errorf("%w: empty body", ErrStreamUnavailable)
	}

	c.logger.Debug("stream opened",
		"conversation_id", id,
		"content_type", resp.Header.Get("Content-Type"),
	)
	return resp.Body, nil
}

func conversationPath(id string) string {
	return "/conversations/" + url.PathEscape(id)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth.SetBearer(req, c.tokens.Token())
	return req, nil
}

// do performs a JSON request and decodes a 2xx response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
