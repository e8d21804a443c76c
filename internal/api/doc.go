// Package api is the HTTP client for the conversation backend.
//
// Endpoints:
//
//	GET    /conversations                       list
//	POST   /conversations                       create {title}
//	PATCH  /conversations/{id}                  rename {title}
//	DELETE /conversations/{id}                  delete
//	GET    /conversations/{id}                  detail with messages
//	POST   /conversations/{id}/messages         single-shot reply {content}
//	POST   /conversations/{id}/messages/stream  streaming reply {content}
//
// Every request carries "Authorization: Bearer <token>" from the configured
// auth.TokenSource, even when the token is empty. Non-2xx responses become
// *StatusError; errors.Is(err, ErrNotFound) identifies a stale id.
package api
