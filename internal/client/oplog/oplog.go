package oplog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

// FailureHandler вызывается для терминально провалившихся действий.
// Исчерпание повторов никогда не теряется молча.
type FailureHandler func(action *models.OfflineAction, err error)

// Log локальный журнал мутаций: durable упорядоченная очередь
// неподтвержденных записей клиента.
//
// Инварианты:
//   - для одного документа одновременно синхронизируется не больше одного действия;
//   - действия одного документа выкачиваются строго в порядке enqueue;
//   - неразрешенный конфликт блокирует очередь своего документа.
type Log struct {
	storage   storage.ActionStorage
	logger    *slog.Logger
	onFailure FailureHandler
	inflight  map[string]bool // docKey -> действие в процессе синхронизации
	blocked   map[string]bool // docKey -> очередь заблокирована конфликтом
	actions   []*models.OfflineAction
	mu        sync.Mutex
}

// New создает журнал мутаций поверх durable хранилища
func New(actionStorage storage.ActionStorage, logger *slog.Logger) *Log {
	return &Log{
		storage:  actionStorage,
		logger:   logger,
		inflight: make(map[string]bool),
		blocked:  make(map[string]bool),
	}
}

// SetFailureHandler регистрирует обработчик терминальных сбоев
func (l *Log) SetFailureHandler(fn FailureHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFailure = fn
}

// Load восстанавливает журнал после рестарта процесса.
// Действия, оставшиеся в статусе syncing, возвращаются в pending:
// исход их записи неизвестен, сервер отсечет дубль по версии.
func (l *Log) Load(ctx context.Context) error {
	actions, err := l.storage.GetAllActions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mutation log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.actions = l.actions[:0]
	for _, a := range actions {
		if a.Status == models.StatusSyncing {
			a.Status = models.StatusPending
		}
		if a.Status == models.StatusConflict {
			l.blocked[a.DocKey()] = true
		}
		l.actions = append(l.actions, a)
	}

	l.logger.Debug("mutation log loaded", "actions", len(l.actions))
	return nil
}

// Enqueue персистит действие до возврата из функции и ставит его в очередь.
// Ошибка durable записи фатальна для вызова: оптимистичному кешу нельзя
// доверять, если журнал не записан.
func (l *Log) Enqueue(ctx context.Context, action *models.OfflineAction) error {
	now := time.Now()
	action.Status = models.StatusPending
	action.CreatedAt = now
	action.UpdatedAt = now

	if err := l.storage.Append(ctx, action); err != nil {
		return fmt.Errorf("failed to persist action: %w", err)
	}

	l.mu.Lock()
	l.actions = append(l.actions, action)
	l.mu.Unlock()

	l.logger.Debug("action enqueued",
		"action_id", action.ID,
		"op", action.Op,
		"doc", action.DocKey(),
		"seq", action.Seq)

	return nil
}

// DequeueNext возвращает старейшее pending действие, чей документ
// не заблокирован конфликтом и не синхронизируется прямо сейчас.
// Возвращенное действие помечается syncing. nil — очередь пуста
// или все оставшиеся документы заняты.
func (l *Log) DequeueNext(ctx context.Context) *models.OfflineAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range l.actions {
		if a.Status != models.StatusPending {
			continue
		}
		key := a.DocKey()
		if l.inflight[key] || l.blocked[key] {
			continue
		}

		a.Status = models.StatusSyncing
		a.UpdatedAt = time.Now()
		l.inflight[key] = true
		return a.Clone()
	}

	return nil
}

// Release возвращает действие из syncing в pending без штрафа.
// Используется при прерывании drain прохода (уход в offline, shutdown).
func (l *Log) Release(actionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.findLocked(actionID)
	if a == nil || a.Status != models.StatusSyncing {
		return
	}
	a.Status = models.StatusPending
	delete(l.inflight, a.DocKey())
}

// RecordAttempt фиксирует неудачную попытку записи перед повтором
func (l *Log) RecordAttempt(ctx context.Context, actionID string, attemptErr error) {
	l.mu.Lock()
	a := l.findLocked(actionID)
	if a == nil {
		l.mu.Unlock()
		return
	}
	a.AttemptCount++
	a.LastError = attemptErr.Error()
	a.UpdatedAt = time.Now()
	persisted := a.Clone()
	l.mu.Unlock()

	if err := l.storage.SaveAction(ctx, persisted); err != nil {
		l.logger.Warn("failed to persist attempt count", "action_id", actionID, "error", err)
	}
}

// MarkSynced удаляет подтвержденное действие из журнала
func (l *Log) MarkSynced(ctx context.Context, actionID string) error {
	l.mu.Lock()
	a := l.findLocked(actionID)
	if a == nil {
		l.mu.Unlock()
		return storage.ErrActionNotFound
	}
	delete(l.inflight, a.DocKey())
	l.removeLocked(actionID)
	l.mu.Unlock()

	if err := l.storage.DeleteAction(ctx, actionID); err != nil {
		return fmt.Errorf("failed to delete synced action: %w", err)
	}

	l.logger.Debug("action synced", "action_id", actionID)
	return nil
}

// MarkFailed терминально проваливает действие: удаляет из журнала
// и отдает в failure handler. Очередь документа продолжает работать.
func (l *Log) MarkFailed(ctx context.Context, actionID string, cause error) error {
	l.mu.Lock()
	a := l.findLocked(actionID)
	if a == nil {
		l.mu.Unlock()
		return storage.ErrActionNotFound
	}
	a.Status = models.StatusFailed
	a.LastError = cause.Error()
	failed := a.Clone()
	delete(l.inflight, a.DocKey())
	l.removeLocked(actionID)
	onFailure := l.onFailure
	l.mu.Unlock()

	if err := l.storage.DeleteAction(ctx, actionID); err != nil {
		l.logger.Warn("failed to delete failed action", "action_id", actionID, "error", err)
	}

	l.logger.Error("action failed permanently",
		"action_id", failed.ID,
		"doc", failed.DocKey(),
		"attempts", failed.AttemptCount,
		"error", cause)

	if onFailure != nil {
		onFailure(failed, cause)
	}
	return nil
}

// MarkConflict переводит действие в состояние конфликта и блокирует
// очередь его документа до явного разрешения
func (l *Log) MarkConflict(ctx context.Context, actionID string) error {
	l.mu.Lock()
	a := l.findLocked(actionID)
	if a == nil {
		l.mu.Unlock()
		return storage.ErrActionNotFound
	}
	a.Status = models.StatusConflict
	a.UpdatedAt = time.Now()
	key := a.DocKey()
	delete(l.inflight, key)
	l.blocked[key] = true
	persisted := a.Clone()
	l.mu.Unlock()

	if err := l.storage.SaveAction(ctx, persisted); err != nil {
		l.logger.Warn("failed to persist conflict status", "action_id", actionID, "error", err)
	}

	l.logger.Warn("action blocked by version conflict", "action_id", actionID, "doc", key)
	return nil
}

// DropConflicted удаляет разрешенное конфликтное действие и разблокирует документ
func (l *Log) DropConflicted(ctx context.Context, actionID string) error {
	l.mu.Lock()
	a := l.findLocked(actionID)
	if a == nil {
		l.mu.Unlock()
		return storage.ErrActionNotFound
	}
	key := a.DocKey()
	l.removeLocked(actionID)
	delete(l.blocked, key)
	l.mu.Unlock()

	if err := l.storage.DeleteAction(ctx, actionID); err != nil {
		return fmt.Errorf("failed to delete conflicted action: %w", err)
	}
	return nil
}

// RebaseDocument переносит первое pending действие документа на новую
// базовую версию. Вызывается после подтверждения предыдущего действия:
// захваченный при enqueue expectedVersion к этому моменту уже устарел.
func (l *Log) RebaseDocument(ctx context.Context, collection, id string, version int64) {
	l.mu.Lock()
	var rebased *models.OfflineAction
	for _, a := range l.actions {
		if a.Collection != collection || a.DocumentID != id {
			continue
		}
		if a.Status != models.StatusPending {
			continue
		}
		if a.Op == models.OpCreate {
			// Create не сверяется с версией, база ему не нужна
			break
		}
		a.ExpectedVersion = version
		a.UpdatedAt = time.Now()
		rebased = a.Clone()
		break
	}
	l.mu.Unlock()

	if rebased == nil {
		return
	}

	if err := l.storage.SaveAction(ctx, rebased); err != nil {
		l.logger.Warn("failed to persist rebased action",
			"action_id", rebased.ID, "doc", rebased.DocKey(), "error", err)
	}
}

// Blocked сообщает, заблокирована ли очередь документа конфликтом
func (l *Log) Blocked(collection, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blocked[collection+"/"+id]
}

// Size возвращает число незавершенных действий в журнале
func (l *Log) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions)
}

// PendingForDocument реализует cache.PendingSource: действия документа
// в порядке enqueue, еще не подтвержденные сервером
func (l *Log) PendingForDocument(collection, id string) []*models.OfflineAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.OfflineAction
	for _, a := range l.actions {
		if a.Collection == collection && a.DocumentID == id {
			out = append(out, a.Clone())
		}
	}
	return out
}

// PendingForCollection реализует cache.PendingSource для целой коллекции
func (l *Log) PendingForCollection(collection string) []*models.OfflineAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.OfflineAction
	for _, a := range l.actions {
		if a.Collection == collection {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Clear удаляет все действия и сбрасывает блокировки
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	l.actions = nil
	l.inflight = make(map[string]bool)
	l.blocked = make(map[string]bool)
	l.mu.Unlock()

	if err := l.storage.ClearActions(ctx); err != nil {
		return fmt.Errorf("failed to clear mutation log: %w", err)
	}
	return nil
}

// findLocked ищет действие по id; вызывается под мьютексом
func (l *Log) findLocked(actionID string) *models.OfflineAction {
	for _, a := range l.actions {
		if a.ID == actionID {
			return a
		}
	}
	return nil
}

// removeLocked удаляет действие из среза; вызывается под мьютексом
func (l *Log) removeLocked(actionID string) {
	for i, a := range l.actions {
		if a.ID == actionID {
			l.actions = append(l.actions[:i], l.actions[i+1:]...)
			return
		}
	}
}
