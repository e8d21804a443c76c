// ABOUTME: Conversion from backend message records to displayed messages
// ABOUTME: Backend messages always arrive complete, so they are never streaming

package messages

import "github.com/HarshalVankudre/digitalocean/internal/api"

// FromAPI converts a persisted backend message.
func FromAPI(m api.Message) Message {
	return Message{
		ID:        m.ID,
		Role:      Role(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// FromAPIList converts a backend history in order.
func FromAPIList(in []api.Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		out = append(out, FromAPI(m))
	}
	return out
}
