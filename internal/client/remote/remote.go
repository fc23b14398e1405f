package remote

import (
	"context"

	"github.com/iudanet/caresync/pkg/api"
)

//go:generate moq -out store_mock.go . Store

// Store определяет контракт удаленного многопользовательского хранилища документов.
// Версии выдает хранилище: монотонно растущий счетчик на документ, начиная с 1.
type Store interface {
	// Get возвращает текущее состояние документа
	// Returns ErrNotFound if document doesn't exist or is a tombstone
	Get(ctx context.Context, collection, id string) (*api.Document, error)

	// Write применяет payload с проверкой expectedVersion (0 = create).
	// Возвращает новую версию или VersionConflictError с фактической версией.
	Write(ctx context.Context, collection, id string, payload map[string]any, expectedVersion int64) (int64, error)

	// Delete помечает документ удаленным с той же проверкой версии
	Delete(ctx context.Context, collection, id string, expectedVersion int64) (int64, error)

	// Subscribe открывает поток изменений коллекции.
	// Первый набор событий — полный снимок коллекции (type=added), далее live изменения.
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}

// Subscription представляет открытый поток изменений.
// Закрытие освобождает соединение немедленно.
type Subscription interface {
	// Events возвращает канал событий; канал закрывается при ошибке потока или Close
	Events() <-chan api.ChangeEvent

	// Err возвращает причину закрытия канала (nil после Close)
	Err() error

	// Close разрывает поток
	Close() error
}
