package storage

import "errors"

// Common client storage errors
var (
	// ErrActionNotFound indicates that offline action was not found
	ErrActionNotFound = errors.New("offline action not found")

	// ErrConflictNotFound indicates that conflict record was not found
	ErrConflictNotFound = errors.New("conflict record not found")

	// ErrDocumentNotFound indicates that cached document was not found
	ErrDocumentNotFound = errors.New("cached document not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
