package storage

import (
	"context"

	"github.com/iudanet/caresync/pkg/api"
)

// DocumentStorage defines interface for versioned document persistence.
// Versions are issued by the storage: a monotonically increasing counter
// per document, starting at 1 on create.
type DocumentStorage interface {
	// GetDocument retrieves a document including tombstones
	// Returns ErrDocumentNotFound if document was never written
	GetDocument(ctx context.Context, collection, id string) (*api.Document, error)

	// ListCollection retrieves all non-deleted documents of a collection
	// Returns empty slice if collection is empty
	ListCollection(ctx context.Context, collection string) ([]*api.Document, error)

	// WriteDocument applies a compare-and-swap write.
	// expectedVersion 0 creates the document (or revives a tombstone);
	// tombstone true marks it deleted keeping the version counter.
	// Returns VersionConflictError with the actual version on mismatch.
	WriteDocument(ctx context.Context, collection, id string, payload map[string]any, expectedVersion int64, tombstone bool) (*api.Document, error)
}
