package storage

import (
	"context"

	"github.com/iudanet/caresync/internal/models"
)

//go:generate moq -out cachestorage_mock.go . CacheStorage

// CacheStorage defines durable storage for the last known remote snapshot.
// The merge view writes through here so cached state survives restart.
type CacheStorage interface {
	// SaveDocument stores or updates a cached document
	SaveDocument(ctx context.Context, doc *models.CachedDocument) error

	// GetDocument retrieves a cached document
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, collection, id string) (*models.CachedDocument, error)

	// GetCollection returns all cached documents of a collection
	GetCollection(ctx context.Context, collection string) ([]*models.CachedDocument, error)

	// GetAllDocuments returns the whole cached snapshot
	GetAllDocuments(ctx context.Context) ([]*models.CachedDocument, error)

	// DeleteDocument removes a document from the snapshot
	DeleteDocument(ctx context.Context, collection, id string) error

	// ClearDocuments removes the whole snapshot
	ClearDocuments(ctx context.Context) error
}
