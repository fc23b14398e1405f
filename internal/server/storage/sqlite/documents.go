package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/caresync/internal/server/storage"
	"github.com/iudanet/caresync/pkg/api"
)

// GetDocument retrieves a document including tombstones
// Returns ErrDocumentNotFound if document was never written
func (s *Storage) GetDocument(ctx context.Context, collection, id string) (*api.Document, error) {
	query := `
		SELECT collection, id, payload, version, deleted, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListCollection retrieves all non-deleted documents of a collection
func (s *Storage) ListCollection(ctx context.Context, collection string) ([]*api.Document, error) {
	query := `
		SELECT collection, id, payload, version, deleted, updated_at
		FROM documents
		WHERE collection = ? AND deleted = 0
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := make([]*api.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return docs, nil
}

// WriteDocument applies a compare-and-swap write inside a transaction.
// Проверка версии и инкремент происходят атомарно: при несовпадении
// expectedVersion ничего не записывается.
func (s *Storage) WriteDocument(ctx context.Context, collection, id string, payload map[string]any, expectedVersion int64, tombstone bool) (*api.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var currentVersion int64
	var deleted int
	row := tx.QueryRowContext(ctx,
		`SELECT version, deleted FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	err = row.Scan(&currentVersion, &deleted)
	exists := true
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to read current version: %w", err)
		}
		exists = false
	}

	// Tombstone трактуется как отсутствие документа для create:
	// expectedVersion 0 возрождает его с продолжением счетчика версий
	switch {
	case !exists && expectedVersion != 0:
		return nil, &storage.VersionConflictError{Expected: expectedVersion, Actual: 0}
	case exists && expectedVersion == 0 && deleted == 0:
		return nil, &storage.VersionConflictError{Expected: 0, Actual: currentVersion}
	case exists && expectedVersion != 0 && expectedVersion != currentVersion:
		return nil, &storage.VersionConflictError{Expected: expectedVersion, Actual: currentVersion}
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	newVersion := currentVersion + 1

	if exists {
		query := `
			UPDATE documents
			SET payload = ?, version = ?, deleted = ?, updated_at = ?
			WHERE collection = ? AND id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			string(payloadJSON), newVersion, boolToInt(tombstone), now.Unix(),
			collection, id)
	} else {
		query := `
			INSERT INTO documents (collection, id, payload, version, deleted, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			collection, id, string(payloadJSON), newVersion, boolToInt(tombstone), now.Unix())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit write: %w", err)
	}

	return &api.Document{
		Collection: collection,
		ID:         id,
		Payload:    payload,
		Version:    newVersion,
		Deleted:    tombstone,
		UpdatedAt:  now,
	}, nil
}

// scanner покрывает *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*api.Document, error) {
	doc := &api.Document{}
	var payloadJSON string
	var deleted int
	var updatedAt int64

	if err := row.Scan(&doc.Collection, &doc.ID, &payloadJSON, &doc.Version, &deleted, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payloadJSON), &doc.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	doc.Deleted = intToBool(deleted)
	doc.UpdatedAt = time.Unix(updatedAt, 0)
	return doc, nil
}

// Helper functions for bool/int conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
