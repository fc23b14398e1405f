package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

// SaveDocument stores or updates a cached document snapshot
func (s *Storage) SaveDocument(ctx context.Context, doc *models.CachedDocument) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal cached document: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return fmt.Errorf("cache bucket not found")
		}
		return bucket.Put(docKey(doc.Collection, doc.ID), data)
	})

	if err != nil {
		return fmt.Errorf("save document transaction failed: %w", err)
	}

	return nil
}

// GetDocument retrieves a cached document
func (s *Storage) GetDocument(ctx context.Context, collection, id string) (*models.CachedDocument, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var doc *models.CachedDocument

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return storage.ErrDocumentNotFound
		}

		data := bucket.Get(docKey(collection, id))
		if data == nil {
			return storage.ErrDocumentNotFound
		}

		doc = &models.CachedDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to unmarshal cached document: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetCollection returns all cached documents of one collection.
// Ключи имеют вид "collection/id", поэтому используем префиксный курсор.
func (s *Storage) GetCollection(ctx context.Context, collection string) ([]*models.CachedDocument, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	prefix := []byte(collection + "/")
	var docs []*models.CachedDocument

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var doc models.CachedDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("failed to unmarshal cached document: %w", err)
			}
			docs = append(docs, &doc)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	return docs, nil
}

// GetAllDocuments returns the whole cached snapshot
func (s *Storage) GetAllDocuments(ctx context.Context) ([]*models.CachedDocument, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var docs []*models.CachedDocument

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var doc models.CachedDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("failed to unmarshal cached document: %w", err)
			}
			docs = append(docs, &doc)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get all documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document from the snapshot
func (s *Storage) DeleteDocument(ctx context.Context, collection, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return storage.ErrDocumentNotFound
		}
		return bucket.Delete(docKey(collection, id))
	})

	if err != nil {
		return fmt.Errorf("delete document transaction failed: %w", err)
	}

	return nil
}

// ClearDocuments removes the whole cached snapshot
func (s *Storage) ClearDocuments(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketCache); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketCache); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}
