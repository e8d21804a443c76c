// Package session owns the active conversation.
//
// State is the single active-id holder shared by the send path and the
// conversation switcher. Manager resolves which conversation to show on
// startup (persisted, then most recent, then new) and performs open,
// switch, rename and delete so that the active id, the durable store and
// the message sequence always describe the same conversation.
package session
