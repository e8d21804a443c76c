// ABOUTME: Durable client-side key/value storage interface and shared errors
// ABOUTME: Holds the small amount of state that must survive client restarts

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been written or was deleted
var ErrNotFound = errors.New("not found")

// KeyActiveConversation holds the id of the conversation opened last.
const KeyActiveConversation = "active_conversation"

// KV is durable string storage keyed by name.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
