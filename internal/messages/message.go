// ABOUTME: Message and Role types for the active conversation's in-memory sequence
// ABOUTME: Local ids are generated for optimistic messages until the backend assigns one

package messages

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LocalIDPrefix marks ids generated on the client for messages the backend
// has not acknowledged.
const LocalIDPrefix = "local-"

// Message is one entry of a conversation as the client displays it.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Streaming bool
	CreatedAt time.Time
}

// IsLocal reports whether the id was generated on the client.
func (m Message) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

func newLocalID(role Role) string {
	kind := "u"
	if role == RoleAssistant {
		kind = "a"
	}
	return LocalIDPrefix + kind + "-" + uuid.New().String()
}
