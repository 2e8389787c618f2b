// Package apperr defines the error kinds shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrLoadParse marks a malformed or unreadable project document. The
	// in-memory graph is left untouched.
	ErrLoadParse = errors.New("project load failed")
	// ErrSaveIO marks a failed project write.
	ErrSaveIO = errors.New("project save failed")
	// ErrClipboardFormat marks a paste payload that is not a node list.
	ErrClipboardFormat = errors.New("invalid clipboard payload")
	// ErrDanglingEdge marks a connection whose endpoint does not exist.
	ErrDanglingEdge = errors.New("dangling edge reference")

	ErrSessionClosed = errors.New("session closed")
)
