// Package store provides durable client-side storage.
//
// The client keeps very little local state: the backend owns conversations
// and messages. What must survive a restart is the id of the conversation
// the user had open, stored under KeyActiveConversation.
//
// Two implementations of KV exist:
//
//   - SQLiteStore: a single client_state table in a WAL-mode database
//   - MemoryStore: a map, used by tests and by --ephemeral sessions
package store
