package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

// PendingSource отдает незакоммиченные локальные действия для наложения.
// Реализуется локальным журналом мутаций.
type PendingSource interface {
	// PendingForDocument возвращает pending действия документа в порядке enqueue
	PendingForDocument(collection, id string) []*models.OfflineAction

	// PendingForCollection возвращает pending действия всех документов коллекции
	PendingForCollection(collection string) []*models.OfflineAction
}

// MergeView единая поверхность чтения: серверные снимки с наложенными
// локальными дельтами. Серверное состояние хранится отдельно от дельт,
// поэтому дельты переналожатся на каждый свежий снимок автоматически.
type MergeView struct {
	docs    map[string]*models.CachedDocument // remote-authoritative снимки
	storage storage.CacheStorage
	pending PendingSource
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewMergeView создает merge view поверх durable снимка
func NewMergeView(cacheStorage storage.CacheStorage, logger *slog.Logger) *MergeView {
	return &MergeView{
		docs:    make(map[string]*models.CachedDocument),
		storage: cacheStorage,
		logger:  logger,
	}
}

// SetPendingSource подключает журнал мутаций.
// Вызывается один раз при сборке движка.
func (v *MergeView) SetPendingSource(src PendingSource) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = src
}

// Load восстанавливает последний известный серверный снимок после рестарта
func (v *MergeView) Load(ctx context.Context) error {
	docs, err := v.storage.GetAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache snapshot: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, doc := range docs {
		v.docs[doc.DocKey()] = doc
	}

	v.logger.Debug("cache snapshot loaded", "documents", len(docs))
	return nil
}

// ApplyRemote принимает авторитетный серверный снимок документа.
// Поля сервера — источник правды; локальные дельты накладываются при чтении.
func (v *MergeView) ApplyRemote(ctx context.Context, doc *models.CachedDocument) error {
	doc = doc.Clone()
	doc.Source = models.SourceRemote
	if doc.LastUpdated.IsZero() {
		doc.LastUpdated = time.Now()
	}

	v.mu.Lock()
	v.docs[doc.DocKey()] = doc
	v.mu.Unlock()

	// Write-through: снимок переживает рестарт процесса
	if err := v.storage.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist cached document: %w", err)
	}
	return nil
}

// Remote возвращает чистый серверный снимок без наложения дельт.
// Используется при захвате expectedVersion в момент enqueue.
func (v *MergeView) Remote(collection, id string) (*models.CachedDocument, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	doc, ok := v.docs[collection+"/"+id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Read возвращает документ: серверный снимок, а при наличии pending действий —
// снимок с наложенной локальной дельтой (source=merged)
func (v *MergeView) Read(ctx context.Context, collection, id string) (*models.CachedDocument, error) {
	v.mu.RLock()
	base, ok := v.docs[collection+"/"+id]
	if ok {
		base = base.Clone()
	}
	pending := v.pending
	v.mu.RUnlock()

	var actions []*models.OfflineAction
	if pending != nil {
		actions = pending.PendingForDocument(collection, id)
	}

	doc := overlay(collection, id, base, actions)
	if doc == nil || doc.Deleted {
		return nil, storage.ErrDocumentNotFound
	}
	return doc, nil
}

// ReadCollection возвращает все видимые документы коллекции с наложенными дельтами
func (v *MergeView) ReadCollection(ctx context.Context, collection string) ([]*models.CachedDocument, error) {
	v.mu.RLock()
	prefix := collection + "/"
	bases := make(map[string]*models.CachedDocument)
	for key, doc := range v.docs {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			bases[doc.ID] = doc.Clone()
		}
	}
	pending := v.pending
	v.mu.RUnlock()

	// Группируем pending действия по документу; создания добавляют новые id
	byDoc := make(map[string][]*models.OfflineAction)
	if pending != nil {
		for _, a := range pending.PendingForCollection(collection) {
			byDoc[a.DocumentID] = append(byDoc[a.DocumentID], a)
		}
	}

	ids := make(map[string]struct{}, len(bases)+len(byDoc))
	for id := range bases {
		ids[id] = struct{}{}
	}
	for id := range byDoc {
		ids[id] = struct{}{}
	}

	docs := make([]*models.CachedDocument, 0, len(ids))
	for id := range ids {
		doc := overlay(collection, id, bases[id], byDoc[id])
		if doc == nil || doc.Deleted {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Forget удаляет документ из снимка (сервер прислал tombstone)
func (v *MergeView) Forget(ctx context.Context, collection, id string) error {
	v.mu.Lock()
	delete(v.docs, collection+"/"+id)
	v.mu.Unlock()

	if err := v.storage.DeleteDocument(ctx, collection, id); err != nil {
		return fmt.Errorf("failed to delete cached document: %w", err)
	}
	return nil
}

// Clear сбрасывает merge view и durable снимок
func (v *MergeView) Clear(ctx context.Context) error {
	v.mu.Lock()
	v.docs = make(map[string]*models.CachedDocument)
	v.mu.Unlock()

	if err := v.storage.ClearDocuments(ctx); err != nil {
		return fmt.Errorf("failed to clear cache snapshot: %w", err)
	}
	return nil
}

// overlay накладывает pending действия на серверный снимок в порядке enqueue.
// Поля, не тронутые локальной дельтой, сохраняют серверные значения.
func overlay(collection, id string, base *models.CachedDocument, actions []*models.OfflineAction) *models.CachedDocument {
	if len(actions) == 0 {
		return base
	}

	doc := base
	if doc == nil {
		doc = &models.CachedDocument{
			Collection: collection,
			ID:         id,
			Source:     models.SourceLocalOptimistic,
		}
	} else {
		doc.Source = models.SourceMerged
	}

	for _, a := range actions {
		switch a.Op {
		case models.OpDelete:
			doc.Deleted = true
		case models.OpCreate, models.OpUpdate:
			doc.Deleted = false
			if doc.Payload == nil {
				doc.Payload = make(map[string]any, len(a.Payload))
			}
			// Локальные поля побеждают, остальные остаются серверными
			for k, val := range a.Payload {
				doc.Payload[k] = val
			}
		}
		if a.UpdatedAt.After(doc.LastUpdated) {
			doc.LastUpdated = a.UpdatedAt
		}
	}

	return doc
}

// Reconcile объединяет два набора документов по id, предпочитая запись
// с большей серверной версией. Версию выдает хранилище, поэтому сравнение
// не зависит от рассинхронизации часов клиентов; LastUpdated используется
// только как tie-breaker для документов, никогда не попадавших на сервер.
func Reconcile(local, fetched []*models.CachedDocument) []*models.CachedDocument {
	byID := make(map[string]*models.CachedDocument, len(local)+len(fetched))

	pick := func(doc *models.CachedDocument) {
		existing, ok := byID[doc.DocKey()]
		if !ok {
			byID[doc.DocKey()] = doc
			return
		}
		if doc.Version > existing.Version {
			byID[doc.DocKey()] = doc
			return
		}
		if doc.Version == existing.Version && doc.LastUpdated.After(existing.LastUpdated) {
			byID[doc.DocKey()] = doc
		}
	}

	for _, doc := range local {
		pick(doc)
	}
	for _, doc := range fetched {
		pick(doc)
	}

	result := make([]*models.CachedDocument, 0, len(byID))
	for _, doc := range byID {
		result = append(result, doc)
	}
	return result
}
