// ABOUTME: ConversationDirectory listing, creating, renaming and deleting conversations
// ABOUTME: Keeps a read-through cache of the last listing for the conversation switcher

package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/HarshalVankudre/digitalocean/internal/api"
)

// DefaultTitle is used when a conversation is created without a title.
const DefaultTitle = "New chat"

// ErrEmptyTitle is returned when a rename title is blank after trimming
var ErrEmptyTitle = errors.New("title is required")

// Backend is the subset of the API client the directory needs.
type Backend interface {
	ListConversations(ctx context.Context) ([]api.Conversation, error)
	CreateConversation(ctx context.Context, title string) (*api.Conversation, error)
	RenameConversation(ctx context.Context, id, title string) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Directory is the client's view of the conversation list.
type Directory struct {
	backend      Backend
	defaultTitle string
	logger       *slog.Logger

	mu    sync.RWMutex
	cache []api.Conversation
}

// New creates a Directory. An empty defaultTitle means DefaultTitle.
func New(backend Backend, defaultTitle string, logger *slog.Logger) *Directory {
	if defaultTitle == "" {
		defaultTitle = DefaultTitle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		backend:      backend,
		defaultTitle: defaultTitle,
		logger:       logger.With("component", "directory"),
	}
}

// List fetches the conversation list in backend order (most recent first)
// and refreshes the cache.
func (d *Directory) List(ctx context.Context) ([]api.Conversation, error) {
	convs, err := d.backend.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache = append([]api.Conversation(nil), convs...)
	d.mu.Unlock()

	return convs, nil
}

// Cached returns the last listing without a network call.
func (d *Directory) Cached() []api.Conversation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]api.Conversation(nil), d.cache...)
}

// Find looks up a conversation in the cache.
func (d *Directory) Find(id string) (api.Conversation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.cache {
		if c.ID == id {
			return c, true
		}
	}
	return api.Conversation{}, false
}

// Create makes a new conversation. A blank title gets the default title.
func (d *Directory) Create(ctx context.Context, title string) (*api.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = d.defaultTitle
	}

	conv, err := d.backend.CreateConversation(ctx, title)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache = append([]api.Conversation{*conv}, d.cache...)
	d.mu.Unlock()

	d.logger.Debug("conversation created", "conversation_id", conv.ID, "title", conv.Title)
	return conv, nil
}

// Rename changes a conversation's title. The title is trimmed and must not
// be empty.
func (d *Directory) Rename(ctx context.Context, id, title string) (*api.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	conv, err := d.backend.RenameConversation(ctx, id, title)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	for i := range d.cache {
		if d.cache[i].ID == id {
			d.cache[i] = *conv
		}
	}
	d.mu.Unlock()

	return conv, nil
}

// Delete removes a conversation.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.backend.DeleteConversation(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	kept := d.cache[:0]
	for _, c := range d.cache {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	d.cache = kept
	d.mu.Unlock()

	d.logger.Debug("conversation deleted", "conversation_id", id)
	return nil
}
