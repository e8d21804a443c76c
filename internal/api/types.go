// ABOUTME: JSON models of the conversation backend's REST surface
// ABOUTME: Mirrors the backend's ConversationPublic, ConversationDetail and MessagePublic shapes

package api

import (
	"encoding/json"
	"time"
)

// Conversation is a listing entry.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DisplayTitle returns the title, or "Chat" for untitled conversations.
func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return "Chat"
	}
	return c.Title
}

// Message is a persisted message. Retrieval, guardrail and function-call
// details are passed through untouched.
type Message struct {
	ID         string          `json:"id"`
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Retrieval  json.RawMessage `json:"retrieval,omitempty"`
	Guardrails json.RawMessage `json:"guardrails,omitempty"`
	Functions  json.RawMessage `json:"functions,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitzero"`
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type contentRequest struct {
	Content string `json:"content"`
}
