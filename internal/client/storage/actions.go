package storage

import (
	"context"

	"github.com/iudanet/caresync/internal/models"
)

//go:generate moq -out actionstorage_mock.go . ActionStorage

// ActionStorage defines durable storage for the local mutation log.
// Append assigns a monotonically increasing sequence number and must
// persist the action before returning.
type ActionStorage interface {
	// Append persists a new action and fills in its Seq
	Append(ctx context.Context, action *models.OfflineAction) error

	// SaveAction updates an existing action (status, attempts, last error)
	SaveAction(ctx context.Context, action *models.OfflineAction) error

	// GetAction retrieves an action by ID
	// Returns ErrActionNotFound if action doesn't exist
	GetAction(ctx context.Context, id string) (*models.OfflineAction, error)

	// GetAllActions returns all persisted actions ordered by Seq
	GetAllActions(ctx context.Context) ([]*models.OfflineAction, error)

	// DeleteAction removes a terminal action from the log
	DeleteAction(ctx context.Context, id string) error

	// ClearActions removes all actions
	ClearActions(ctx context.Context) error
}

//go:generate moq -out conflictstorage_mock.go . ConflictStorage

// ConflictStorage defines durable storage for unresolved conflict records
type ConflictStorage interface {
	// SaveConflict stores or updates a conflict record keyed by document
	SaveConflict(ctx context.Context, record *models.ConflictRecord) error

	// GetConflict retrieves a conflict record for a document
	// Returns ErrConflictNotFound if no conflict exists
	GetConflict(ctx context.Context, collection, documentID string) (*models.ConflictRecord, error)

	// GetAllConflicts returns all stored conflict records
	GetAllConflicts(ctx context.Context) ([]*models.ConflictRecord, error)

	// DeleteConflict removes a resolved conflict record
	DeleteConflict(ctx context.Context, collection, documentID string) error

	// ClearConflicts removes all conflict records
	ClearConflicts(ctx context.Context) error
}
