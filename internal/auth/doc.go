// Package auth handles bearer tokens.
//
// On the client side a TokenSource supplies the token for each request and
// SetBearer attaches it. Inspect decodes the token's claims without the
// secret so the CLI can warn about an expired login before the backend
// rejects it.
//
// On the server side (the fake backend used in tests and local runs)
// JWTVerifier checks HS256 signatures and HTTPAuthMiddleware guards the API:
//
//	verifier := auth.NewJWTVerifier(secret)
//	handler := auth.HTTPAuthMiddleware(verifier)(mux)
package auth
