package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/caresync/internal/client/conflict"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/models"
)

// errConflictHandled сигнализирует, что действие ушло в конфликтный путь:
// попытка завершена, повторов не нужно
var errConflictHandled = errors.New("version conflict handled")

// drain выкачивает журнал мутаций в удаленное хранилище.
// Перекрывающиеся drain проходы запрещены; действия одного документа
// применяются строго последовательно, разные документы — параллельно
// в пределах пула воркеров.
func (e *Engine) drain(ctx context.Context) error {
	if !e.draining.CompareAndSwap(false, true) {
		// Drain уже идет — второй не запускаем
		return nil
	}
	defer e.draining.Store(false)

	e.logger.Debug("drain pass started", "queue_size", e.log.Size())

	for ctx.Err() == nil {
		// Батч содержит максимум одно действие на документ:
		// второе отсеивается как in-flight
		var batch []*models.OfflineAction
		for {
			a := e.log.DequeueNext(ctx)
			if a == nil {
				break
			}
			batch = append(batch, a)
		}
		if len(batch) == 0 {
			break
		}

		g := new(errgroup.Group)
		g.SetLimit(e.cfg.SyncWorkers)
		for _, action := range batch {
			g.Go(func() error {
				e.processAction(ctx, action)
				return nil
			})
		}
		_ = g.Wait()
	}

	e.collector.SetQueueSize(e.log.Size())

	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now()
	e.collector.SyncCompleted(now)
	if err := e.store.SaveLastSyncTime(ctx, now.Unix()); err != nil {
		e.logger.Warn("failed to persist last sync time", "error", err)
	}

	e.logger.Debug("drain pass finished", "queue_size", e.log.Size())
	return nil
}

// processAction применяет одно действие с повторами по backoff.
// Транзиентные сбои повторяются до MaxAttempts; исчерпание и
// неповторяемые ошибки терминальны и попадают в отчетность.
func (e *Engine) processAction(ctx context.Context, action *models.OfflineAction) {
	backoff := retry.NewExponential(e.cfg.RetryBase)
	backoff = retry.WithCappedDuration(e.cfg.RetryCap, backoff)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(e.cfg.MaxAttempts-1, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := e.attempt(ctx, action)
		if remote.IsTransient(attemptErr) {
			e.log.RecordAttempt(ctx, action.ID, attemptErr)
			e.logger.Debug("transient sync failure, will retry",
				"action_id", action.ID, "doc", action.DocKey(), "error", attemptErr)
			return retry.RetryableError(attemptErr)
		}
		return attemptErr
	})

	switch {
	case err == nil:
		// Подтверждено или уже обработано внутри attempt
	case errors.Is(err, errConflictHandled):
		// Действие заблокировано конфликтом, очередь документа стоит
	case ctx.Err() != nil:
		// Drain прерван (offline/shutdown): действие возвращается
		// в pending без штрафа
		e.log.Release(action.ID)
	default:
		// Терминальный сбой: лимит повторов или неповторяемая ошибка
		if markErr := e.log.MarkFailed(ctx, action.ID, err); markErr != nil {
			e.logger.Error("failed to mark action as failed",
				"action_id", action.ID, "error", markErr)
		}
		e.collector.SetQueueSize(e.log.Size())
	}
}

// attempt выполняет одну попытку применения действия по протоколу
// optimistic concurrency: сверка версии, затем запись
func (e *Engine) attempt(ctx context.Context, a *models.OfflineAction) error {
	switch a.Op {
	case models.OpCreate:
		newVersion, err := e.remote.Write(ctx, a.Collection, a.DocumentID, a.Payload, 0)
		if err != nil {
			if vc, ok := remote.AsVersionConflict(err); ok {
				// Документ с таким id уже существует
				return e.handleConflict(ctx, a, vc.Actual, nil)
			}
			return err
		}
		return e.confirm(ctx, a, a.Payload, newVersion)

	case models.OpUpdate, models.OpDelete:
		doc, err := e.remote.Get(ctx, a.Collection, a.DocumentID)
		if err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				if a.Op == models.OpDelete {
					// Документа уже нет — цель достигнута
					return e.confirmDelete(ctx, a)
				}
				// Update несуществующего документа: конфликт с actual=0
				return e.handleConflict(ctx, a, 0, nil)
			}
			return err
		}

		if doc.Version != a.ExpectedVersion {
			// Расхождение версий: запись не выдается вовсе
			return e.handleConflict(ctx, a, doc.Version, doc.Payload)
		}

		if a.Op == models.OpDelete {
			if _, err := e.remote.Delete(ctx, a.Collection, a.DocumentID, a.ExpectedVersion); err != nil {
				if vc, ok := remote.AsVersionConflict(err); ok {
					return e.handleConflict(ctx, a, vc.Actual, nil)
				}
				return err
			}
			return e.confirmDelete(ctx, a)
		}

		// Полный payload: серверные поля + локальная дельта поверх.
		// Поля, не тронутые дельтой, сохраняют серверные значения.
		full := make(map[string]any, len(doc.Payload)+len(a.Payload))
		for k, v := range doc.Payload {
			full[k] = v
		}
		for k, v := range a.Payload {
			full[k] = v
		}

		newVersion, err := e.remote.Write(ctx, a.Collection, a.DocumentID, full, a.ExpectedVersion)
		if err != nil {
			if vc, ok := remote.AsVersionConflict(err); ok {
				// Сервер уехал вперед между Get и Write
				return e.handleConflict(ctx, a, vc.Actual, nil)
			}
			return err
		}
		return e.confirm(ctx, a, full, newVersion)
	}

	return fmt.Errorf("unknown operation %q", a.Op)
}

// confirm фиксирует успешную запись: кеш получает подтвержденное состояние
// до снятия действия из журнала, чтобы чтение не мерцало
func (e *Engine) confirm(ctx context.Context, a *models.OfflineAction, payload map[string]any, newVersion int64) error {
	if err := e.view.ApplyRemote(ctx, &models.CachedDocument{
		Collection:  a.Collection,
		ID:          a.DocumentID,
		Payload:     payload,
		Version:     newVersion,
		LastUpdated: time.Now(),
	}); err != nil {
		e.logger.Warn("failed to update cache after sync", "doc", a.DocKey(), "error", err)
	}

	if err := e.log.MarkSynced(ctx, a.ID); err != nil {
		return fmt.Errorf("failed to mark action synced: %w", err)
	}

	// Следующее действие этого документа ожидает уже новую версию
	e.log.RebaseDocument(ctx, a.Collection, a.DocumentID, newVersion)
	e.collector.SetQueueSize(e.log.Size())

	e.logger.Debug("action applied remotely",
		"action_id", a.ID, "doc", a.DocKey(), "version", newVersion)
	return nil
}

// confirmDelete фиксирует подтвержденное удаление
func (e *Engine) confirmDelete(ctx context.Context, a *models.OfflineAction) error {
	if err := e.view.Forget(ctx, a.Collection, a.DocumentID); err != nil {
		e.logger.Warn("failed to drop cached document", "doc", a.DocKey(), "error", err)
	}
	if err := e.log.MarkSynced(ctx, a.ID); err != nil {
		return fmt.Errorf("failed to mark action synced: %w", err)
	}
	e.collector.SetQueueSize(e.log.Size())
	return nil
}

// handleConflict регистрирует ConflictRecord, блокирует очередь документа
// и, если включено автоматическое разрешение, применяет глобальную стратегию
func (e *Engine) handleConflict(ctx context.Context, a *models.OfflineAction, actual int64, remotePayload map[string]any) error {
	if remotePayload == nil {
		if doc, err := e.remote.Get(ctx, a.Collection, a.DocumentID); err == nil {
			remotePayload = doc.Payload
			if actual == 0 {
				actual = doc.Version
			}
		}
	}

	rec, err := e.resolver.Record(ctx, a, actual, remotePayload)
	if err != nil {
		return err
	}

	if err := e.log.MarkConflict(ctx, a.ID); err != nil {
		e.logger.Error("failed to mark action conflicted", "action_id", a.ID, "error", err)
	}
	e.collector.ConflictDetected()

	e.mu.Lock()
	cb := e.onConflict
	e.mu.Unlock()
	if cb != nil {
		cb(rec)
	}

	if e.cfg.AutoResolve {
		if err := e.resolver.Resolve(ctx, a.Collection, a.DocumentID, e.cfg.DefaultStrategy); err != nil {
			if !errors.Is(err, conflict.ErrManualResolution) {
				e.logger.Warn("automatic conflict resolution failed",
					"doc", a.DocKey(), "strategy", e.cfg.DefaultStrategy, "error", err)
			}
		} else {
			e.collector.SetQueueSize(e.log.Size())
		}
	}

	return errConflictHandled
}
