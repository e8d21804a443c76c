// ABOUTME: Conversation session lifecycle: resolve on startup, open, switch, rename and delete
// ABOUTME: Keeps the active id, the durable store and the message sequence consistent

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/directory"
	"github.com/HarshalVankudre/digitalocean/internal/messages"
)

// ErrStartup is returned by Resolve when no conversation could be opened
// or created.
var ErrStartup = errors.New("could not start a conversation")

var errNoConversations = errors.New("no conversations")

// HistoryFetcher loads a conversation and its messages.
type HistoryFetcher interface {
	GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error)
}

// Manager drives the active conversation.
type Manager struct {
	dir     *directory.Directory
	history HistoryFetcher
	state   *State
	msgs    *messages.Store
	logger  *slog.Logger
}

// NewManager wires a Manager. A nil logger means slog.Default().
func NewManager(dir *directory.Directory, history HistoryFetcher, state *State, msgs *messages.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:     dir,
		history: history,
		state:   state,
		msgs:    msgs,
		logger:  logger.With("component", "session"),
	}
}

// State returns the active-id holder.
func (m *Manager) State() *State { return m.state }

// Active returns the active conversation id.
func (m *Manager) Active() string { return m.state.Active() }

// Open fetches a conversation's history, makes it active and replaces the
// message sequence. Nothing changes unless every step succeeds.
func (m *Manager) Open(ctx context.Context, id string) error {
	detail, err := m.history.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("opening conversation %s: %w", id, err)
	}

	if err := m.state.SetActive(ctx, id); err != nil {
		return err
	}
	m.msgs.ReplaceAll(messages.FromAPIList(detail.Messages))

	m.logger.Debug("conversation opened", "conversation_id", id, "messages", len(detail.Messages))
	return nil
}

// NewConversation creates an untitled conversation and makes it active with
// an empty history.
func (m *Manager) NewConversation(ctx context.Context) (*api.Conversation, error) {
	return m.create(ctx, "")
}

// NewConversationTitled is NewConversation with an explicit title.
func (m *Manager) NewConversationTitled(ctx context.Context, title string) (*api.Conversation, error) {
	return m.create(ctx, title)
}

func (m *Manager) create(ctx context.Context, title string) (*api.Conversation, error) {
	conv, err := m.dir.Create(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if err := m.state.SetActive(ctx, conv.ID); err != nil {
		return nil, err
	}
	m.msgs.ReplaceAll(nil)
	return conv, nil
}

// Resolve picks the conversation to show on startup: the persisted one if it
// still opens, else the most recent, else a new one. Only a failure to create
// is reported, wrapped in ErrStartup.
func (m *Manager) Resolve(ctx context.Context) (string, error) {
	stored, err := m.state.Load(ctx)
	if err != nil {
		m.logger.Warn("reading stored conversation", "error", err)
	}
	if stored != "" {
		err := m.Open(ctx, stored)
		if err == nil {
			return stored, nil
		}
		m.logger.Debug("stored conversation unavailable", "conversation_id", stored, "error", err)
	}

	convs, err := m.dir.List(ctx)
	if err != nil {
		m.logger.Warn("listing conversations", "error", err)
	}
	if len(convs) > 0 {
		recent := convs[0].ID
		err := m.Open(ctx, recent)
		if err == nil {
			return recent, nil
		}
		m.logger.Warn("opening most recent conversation", "conversation_id", recent, "error", err)
	}

	conv, err := m.NewConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStartup, err)
	}
	m.logger.Info("started new conversation", "conversation_id", conv.ID)
	return conv.ID, nil
}

// Switch makes another conversation active.
func (m *Manager) Switch(ctx context.Context, id string) error {
	return m.Open(ctx, id)
}

// Rename changes a conversation's title. The message sequence is untouched.
func (m *Manager) Rename(ctx context.Context, id, title string) (*api.Conversation, error) {
	return m.dir.Rename(ctx, id, title)
}

// Delete removes a conversation. Deleting the active conversation starts a
// new one in its place, or opens a remaining one if creation fails.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.dir.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if id != m.state.Active() {
		return nil
	}

	if _, err := m.NewConversation(ctx); err != nil {
		if openErr := m.openRemaining(ctx); openErr == nil {
			m.logger.Warn("could not start a new conversation, opened an existing one", "error", err)
			return nil
		}
		m.msgs.ReplaceAll(nil)
		if clearErr := m.state.Clear(ctx); clearErr != nil {
			m.logger.Warn("clearing deleted conversation", "error", clearErr)
		}
		return fmt.Errorf("replacing deleted conversation: %w", err)
	}
	return nil
}

// openRemaining opens the first conversation left in the directory, using
// the cached listing when there is one.
func (m *Manager) openRemaining(ctx context.Context) error {
	convs := m.dir.Cached()
	if len(convs) == 0 {
		listed, err := m.dir.List(ctx)
		if err != nil {
			return err
		}
		convs = listed
	}

	if len(convs) == 0 {
		return errNoConversations
	}
	return m.Open(ctx, convs[0].ID)
}
