// Package directory wraps the backend's conversation listing and CRUD
// calls. It is a leaf dependency of session resolution and of the
// conversation switcher. The cache is read-through: List refreshes it,
// create/rename/delete patch it in place.
package directory
