// Package contract holds tests that pin the client's external surfaces:
// the on-disk state schema and the backend REST routes.
package contract
