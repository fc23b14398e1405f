package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

// seqKey кодирует sequence number в big-endian, чтобы порядок ключей
// в bucket совпадал с порядком enqueue
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Append persists a new action and assigns its sequence number.
// Запись становится durable до возврата из функции: bbolt коммитит
// транзакцию синхронно.
func (s *Storage) Append(ctx context.Context, action *models.OfflineAction) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		if bucket == nil {
			return fmt.Errorf("actions bucket not found")
		}

		// Монотонный номер очереди выдает bbolt
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		action.Seq = seq

		data, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %w", err)
		}

		if err := bucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to save action: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("append transaction failed: %w", err)
	}

	return nil
}

// SaveAction updates an existing action in place
func (s *Storage) SaveAction(ctx context.Context, action *models.OfflineAction) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	if action.Seq == 0 {
		return fmt.Errorf("action %s has no sequence number", action.ID)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		if bucket == nil {
			return fmt.Errorf("actions bucket not found")
		}

		if bucket.Get(seqKey(action.Seq)) == nil {
			return storage.ErrActionNotFound
		}

		data, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %w", err)
		}

		return bucket.Put(seqKey(action.Seq), data)
	})

	if err != nil {
		return err
	}

	return nil
}

// GetAction retrieves an action by its ID
func (s *Storage) GetAction(ctx context.Context, id string) (*models.OfflineAction, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var found *models.OfflineAction

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		if bucket == nil {
			return storage.ErrActionNotFound
		}

		return bucket.ForEach(func(k, v []byte) error {
			var action models.OfflineAction
			if err := json.Unmarshal(v, &action); err != nil {
				return fmt.Errorf("failed to unmarshal action: %w", err)
			}
			if action.ID == id {
				found = &action
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, storage.ErrActionNotFound
	}

	return found, nil
}

// GetAllActions returns all actions ordered by sequence number.
// Ключи big-endian, поэтому ForEach отдает записи в порядке enqueue.
func (s *Storage) GetAllActions(ctx context.Context) ([]*models.OfflineAction, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var actions []*models.OfflineAction

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var action models.OfflineAction
			if err := json.Unmarshal(v, &action); err != nil {
				return fmt.Errorf("failed to unmarshal action: %w", err)
			}
			actions = append(actions, &action)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get all actions: %w", err)
	}

	return actions, nil
}

// DeleteAction removes an action from the log
func (s *Storage) DeleteAction(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketActions)
		if bucket == nil {
			return storage.ErrActionNotFound
		}

		var key []byte
		ferr := bucket.ForEach(func(k, v []byte) error {
			var action models.OfflineAction
			if err := json.Unmarshal(v, &action); err != nil {
				return fmt.Errorf("failed to unmarshal action: %w", err)
			}
			if action.ID == id {
				key = append([]byte(nil), k...)
			}
			return nil
		})
		if ferr != nil {
			return ferr
		}
		if key == nil {
			return storage.ErrActionNotFound
		}

		return bucket.Delete(key)
	})

	if err != nil {
		return err
	}

	return nil
}

// ClearActions removes all actions from the log
func (s *Storage) ClearActions(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		// Удаляем bucket полностью и создаем заново: сбрасывает и sequence
		if err := tx.DeleteBucket(bucketActions); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketActions); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}
