// ABOUTME: MessageStore holding the ordered message sequence of the active conversation
// ABOUTME: Supports optimistic inserts, streaming delta merges, finalization and rollback

package messages

import (
	"sync"
	"time"
)

// Store is the ordered message sequence of the active conversation.
//
// Order is append-only. At most one message is streaming and it is always
// the last one. Content of a non-streaming message never changes.
type Store struct {
	mu          sync.Mutex
	msgs        []Message
	gen         uint64
	subscribers []func([]Message)

	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Subscribe registers fn to receive a snapshot after every mutation.
// Callbacks run synchronously on the mutating goroutine, outside the lock.
func (s *Store) Subscribe(fn func([]Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// ReplaceAll discards the current sequence and installs msgs. It starts a
// new generation.
func (s *Store) ReplaceAll(msgs []Message) {
	s.mu.Lock()
	s.gen++
	s.msgs = make([]Message, len(msgs))
	for i, m := range msgs {
		m.Streaming = false
		s.msgs[i] = m
	}
	s.mu.Unlock()
	s.notify()
}

// AppendUser appends a user message with a fresh local id and returns that id.
func (s *Store) AppendUser(content string) string {
	s.mu.Lock()
	s.finalizeLocked()
	m := Message{
		ID:        newLocalID(RoleUser),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
	s.notify()
	return m.ID
}

// AppendAssistantDelta merges delta into the trailing streaming assistant
// message, or starts a new one. It returns the id of the message that now
// holds the delta.
func (s *Store) AppendAssistantDelta(delta string) string {
	s.mu.Lock()
	var id string
	if last := s.lastLocked(); last != nil && last.Role == RoleAssistant && last.Streaming {
		last.Content += delta
		id = last.ID
	} else {
		m := Message{
			ID:        newLocalID(RoleAssistant),
			Role:      RoleAssistant,
			Content:   delta,
			Streaming: true,
			CreatedAt: s.now(),
		}
		s.msgs = append(s.msgs, m)
		id = m.ID
	}
	s.mu.Unlock()
	s.notify()
	return id
}

// FinalizeStreaming marks the trailing streaming message as complete.
// It reports whether a message was finalized; a second call is a no-op.
func (s *Store) FinalizeStreaming() bool {
	s.mu.Lock()
	changed := s.finalizeLocked()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

// RemoveByID removes the message with the given id, if present.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	removed := false
	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return removed
}

// ReplaceLast installs msg as the authoritative reply. A trailing streaming
// assistant placeholder is replaced; otherwise msg is appended.
func (s *Store) ReplaceLast(msg Message) {
	msg.Streaming = false
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	s.mu.Lock()
	if last := s.lastLocked(); last != nil && last.Role == RoleAssistant && last.Streaming {
		*last = msg
	} else {
		s.msgs = append(s.msgs, msg)
	}
	s.mu.Unlock()
	s.notify()
}

// Generation identifies the current sequence. It changes on every
// ReplaceAll and on nothing else, so ids taken from one generation are only
// meaningful while it lasts.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Snapshot returns a copy of the current sequence.
func (s *Store) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// Last returns the trailing message, if any.
func (s *Store) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last := s.lastLocked(); last != nil {
		return *last, true
	}
	return Message{}, false
}

func (s *Store) lastLocked() *Message {
	if len(s.msgs) == 0 {
		return nil
	}
	return &s.msgs[len(s.msgs)-1]
}

func (s *Store) finalizeLocked() bool {
	if last := s.lastLocked(); last != nil && last.Streaming {
		last.Streaming = false
		return true
	}
	return false
}

func (s *Store) snapshotLocked() []Message {
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := s.subscribers
	var snap []Message
	if len(subs) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
