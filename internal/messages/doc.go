// Package messages holds the in-memory message sequence of the active
// conversation.
//
// The Store is replaced wholesale when the user opens another conversation
// and mutated incrementally while a reply streams in:
//
//	id := store.AppendUser("hello")     // optimistic, local-u-<uuid>
//	store.AppendAssistantDelta("Hi")    // starts a streaming assistant message
//	store.AppendAssistantDelta(" there")
//	store.FinalizeStreaming()
//
// If a send fails, the id returned by AppendUser is enough to undo the
// optimistic insert with RemoveByID.
package messages
