// Package stream turns a streaming reply body into text deltas.
//
// The backend's streaming endpoint may speak Server-Sent Events
//
//	data: Hi
//
//	data:  there
//
//	data: [DONE]
//
// or plain chunked text. Ingester accepts both: lines with a data: field
// yield their payload, any other non-blank line is itself a delta, and the
// sentinel payload ends the reply without being forwarded. Several data:
// fields in one event are joined by line breaks; a break owed by an empty
// field is prepended to the next delta instead of being sent on its own.
// event:, id:,
// retry: and comment lines carry no text. An "event: error" turns the next
// data line into an *EventError.
//
// Bytes are decoded with Decoder, which keeps a multi-byte character split
// across two reads intact.
package stream
