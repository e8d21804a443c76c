// Package fakebackend is an in-memory stand-in for the conversation backend.
//
// It serves the same REST surface as the real server, lists conversations
// newest first, answers 404 with {"detail": "Conversation not found"} for
// unknown ids, and streams replies as SSE data: lines terminated by the
// [DONE] sentinel. Options inject failures: a refused stream, a failed
// single-shot request, a creation failure, or a connection dropped after N
// deltas.
//
//	srv := httptest.NewServer(fakebackend.New(fakebackend.Options{}))
//	client := api.NewClient(srv.URL, nil)
package fakebackend
