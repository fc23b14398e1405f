package conflict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/caresync/internal/client/cache"
	"github.com/iudanet/caresync/internal/client/metrics"
	"github.com/iudanet/caresync/internal/client/oplog"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

// Resolver errors
var (
	// ErrUnknownStrategy indicates an unsupported resolution strategy
	ErrUnknownStrategy = errors.New("unknown resolution strategy")

	// ErrManualResolution indicates the merge found structurally conflicting
	// fields; the record stays unresolved until a human picks a strategy
	ErrManualResolution = errors.New("structural conflict requires manual resolution")
)

// clientWinsRetries сколько раз client_wins перечитывает версию,
// если сервер успевает измениться между Get и Write
const clientWinsRetries = 3

// Resolver решает, какое состояние побеждает при расхождении версий.
// Разрешение идемпотентно: повторный вызов для уже разрешенного
// конфликта ничего не меняет.
type Resolver struct {
	remote    remote.Store
	view      *cache.MergeView
	log       *oplog.Log
	conflicts storage.ConflictStorage
	collector *metrics.Collector
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewResolver создает resolver конфликтов
func NewResolver(
	remoteStore remote.Store,
	view *cache.MergeView,
	log *oplog.Log,
	conflictStorage storage.ConflictStorage,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		remote:    remoteStore,
		view:      view,
		log:       log,
		conflicts: conflictStorage,
		collector: collector,
		logger:    logger,
	}
}

// Record фиксирует обнаруженный конфликт версий.
// Повторное обнаружение того же конфликта не создает дубликата.
func (r *Resolver) Record(ctx context.Context, action *models.OfflineAction, actualVersion int64, remotePayload map[string]any) (*models.ConflictRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, err := r.conflicts.GetConflict(ctx, action.Collection, action.DocumentID); err == nil {
		return existing, nil
	}

	rec := &models.ConflictRecord{
		Collection:      action.Collection,
		DocumentID:      action.DocumentID,
		ActionID:        action.ID,
		ExpectedVersion: action.ExpectedVersion,
		ActualVersion:   actualVersion,
		LocalPayload:    action.Payload,
		RemotePayload:   remotePayload,
		DetectedAt:      time.Now(),
	}

	if err := r.conflicts.SaveConflict(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist conflict record: %w", err)
	}

	r.logger.Warn("version conflict detected",
		"doc", rec.DocKey(),
		"expected_version", rec.ExpectedVersion,
		"actual_version", rec.ActualVersion)

	return rec, nil
}

// Pending возвращает все неразрешенные конфликты
func (r *Resolver) Pending(ctx context.Context) ([]*models.ConflictRecord, error) {
	return r.conflicts.GetAllConflicts(ctx)
}

// Resolve применяет стратегию к конфликту документа.
// Отсутствующий или уже разрешенный конфликт — no-op.
func (r *Resolver) Resolve(ctx context.Context, collection, id string, strategy models.ResolutionStrategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.conflicts.GetConflict(ctx, collection, id)
	if err != nil {
		if errors.Is(err, storage.ErrConflictNotFound) {
			// Уже разрешен и заархивирован — идемпотентный no-op
			return nil
		}
		return fmt.Errorf("failed to load conflict record: %w", err)
	}
	if rec.Resolved() {
		return nil
	}

	switch strategy {
	case models.StrategyServerWins:
		err = r.serverWins(ctx, rec)
	case models.StrategyClientWins:
		err = r.clientWins(ctx, rec)
	case models.StrategyMerge:
		err = r.merge(ctx, rec)
	}
	if err != nil {
		return err
	}

	return r.finalize(ctx, rec, strategy)
}

// serverWins отбрасывает локальный payload и принимает серверное состояние
func (r *Resolver) serverWins(ctx context.Context, rec *models.ConflictRecord) error {
	doc, err := r.remote.Get(ctx, rec.Collection, rec.DocumentID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			// Документ удален на сервере — убираем и из кеша
			if err := r.log.DropConflicted(ctx, rec.ActionID); err != nil {
				return err
			}
			return r.view.Forget(ctx, rec.Collection, rec.DocumentID)
		}
		return fmt.Errorf("failed to fetch remote document: %w", err)
	}

	if err := r.log.DropConflicted(ctx, rec.ActionID); err != nil {
		return err
	}

	return r.view.ApplyRemote(ctx, &models.CachedDocument{
		Collection:  doc.Collection,
		ID:          doc.ID,
		Payload:     doc.Payload,
		Version:     doc.Version,
		Deleted:     doc.Deleted,
		LastUpdated: doc.UpdatedAt,
	})
}

// clientWins перечитывает текущую версию и форсирует локальный payload поверх нее
func (r *Resolver) clientWins(ctx context.Context, rec *models.ConflictRecord) error {
	version := rec.ActualVersion

	for attempt := 0; attempt < clientWinsRetries; attempt++ {
		newVersion, err := r.remote.Write(ctx, rec.Collection, rec.DocumentID, rec.LocalPayload, version)
		if err != nil {
			if vc, ok := remote.AsVersionConflict(err); ok {
				// Сервер снова уехал вперед — перечитываем и повторяем сразу
				version = vc.Actual
				continue
			}
			return fmt.Errorf("failed to force-write local payload: %w", err)
		}

		if err := r.log.DropConflicted(ctx, rec.ActionID); err != nil {
			return err
		}

		return r.view.ApplyRemote(ctx, &models.CachedDocument{
			Collection:  rec.Collection,
			ID:          rec.DocumentID,
			Payload:     rec.LocalPayload,
			Version:     newVersion,
			LastUpdated: time.Now(),
		})
	}

	return fmt.Errorf("client_wins exhausted %d attempts on %s", clientWinsRetries, rec.DocKey())
}

// merge объединяет поля: локальные побеждают, остальные остаются серверными.
// Структурно конфликтующие поля эскалируются человеку.
func (r *Resolver) merge(ctx context.Context, rec *models.ConflictRecord) error {
	doc, err := r.remote.Get(ctx, rec.Collection, rec.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to fetch remote document: %w", err)
	}

	merged, conflictFields := MergePayloads(rec.LocalPayload, doc.Payload)
	if len(conflictFields) > 0 {
		rec.Escalated = true
		rec.RemotePayload = doc.Payload
		rec.ActualVersion = doc.Version
		if err := r.conflicts.SaveConflict(ctx, rec); err != nil {
			r.logger.Warn("failed to persist escalated conflict", "doc", rec.DocKey(), "error", err)
		}
		r.logger.Warn("merge escalated to manual resolution",
			"doc", rec.DocKey(),
			"fields", strings.Join(conflictFields, ","))
		return fmt.Errorf("%w: fields %s", ErrManualResolution, strings.Join(conflictFields, ", "))
	}

	newVersion, err := r.remote.Write(ctx, rec.Collection, rec.DocumentID, merged, doc.Version)
	if err != nil {
		return fmt.Errorf("failed to write merged payload: %w", err)
	}

	if err := r.log.DropConflicted(ctx, rec.ActionID); err != nil {
		return err
	}

	return r.view.ApplyRemote(ctx, &models.CachedDocument{
		Collection:  rec.Collection,
		ID:          rec.DocumentID,
		Payload:     merged,
		Version:     newVersion,
		LastUpdated: time.Now(),
	})
}

// finalize архивирует разрешенный конфликт; ровно одно разрешение на запись
func (r *Resolver) finalize(ctx context.Context, rec *models.ConflictRecord, strategy models.ResolutionStrategy) error {
	now := time.Now()
	rec.Strategy = strategy
	rec.ResolvedAt = &now

	if err := r.conflicts.DeleteConflict(ctx, rec.Collection, rec.DocumentID); err != nil {
		return fmt.Errorf("failed to archive conflict record: %w", err)
	}

	r.collector.ConflictResolved()
	r.logger.Info("conflict resolved",
		"doc", rec.DocKey(),
		"strategy", strategy)
	return nil
}
