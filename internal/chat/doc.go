// Package chat turns user input into a conversation exchange.
//
// The Controller appends the user's message optimistically, opens the
// streaming reply endpoint and feeds each delta into the message sequence.
// If the stream cannot be opened it falls back to the single-shot endpoint.
// If an open stream fails partway the partial reply and the optimistic
// user message are removed; a reply is never retried.
//
// Each submission is tagged with the conversation that was active when it
// started. Deltas for a conversation that is no longer active are dropped.
package chat
