// ABOUTME: Process-wide active conversation id backed by durable client storage
// ABOUTME: Persists before updating memory so a failed write never leaves the two out of step

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/HarshalVankudre/digitalocean/internal/store"
)

// State holds the active conversation id.
type State struct {
	kv store.KV

	mu     sync.RWMutex
	active string
}

// NewState creates a State with no active conversation.
func NewState(kv store.KV) *State {
	return &State{kv: kv}
}

// Active returns the active conversation id, or "" when none is set.
func (s *State) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive persists id and then makes it active. On a storage error the
// in-memory id is left unchanged.
func (s *State) SetActive(ctx context.Context, id string) error {
	if err := s.kv.Set(ctx, store.KeyActiveConversation, id); err != nil {
		return fmt.Errorf("persisting active conversation: %w", err)
	}

	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	return nil
}

// Clear forgets the active conversation in storage and memory.
func (s *State) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, store.KeyActiveConversation); err != nil {
		return fmt.Errorf("clearing active conversation: %w", err)
	}

	s.mu.Lock()
	s.active = ""
	s.mu.Unlock()
	return nil
}

// Load returns the persisted id without activating it. A missing key is
// reported as "".
func (s *State) Load(ctx context.Context) (string, error) {
	id, err := s.kv.Get(ctx, store.KeyActiveConversation)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading active conversation: %w", err)
	}
	return id, nil
}
