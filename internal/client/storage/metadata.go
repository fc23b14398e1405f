package storage

import "context"

//go:generate moq -out metadatastorage_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSyncTime saves the unix time of the last successful drain
	SaveLastSyncTime(ctx context.Context, unixSec int64) error

	// GetLastSyncTime retrieves the unix time of the last successful drain
	// Returns 0 if no sync has been performed yet
	GetLastSyncTime(ctx context.Context) (int64, error)
}
