package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/iudanet/caresync/internal/client/cache"
	"github.com/iudanet/caresync/internal/client/metrics"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/models"
	"github.com/iudanet/caresync/pkg/api"
)

// Callback получает снимок коллекции после каждого серверного изменения.
// Снимок уже содержит наложенные локальные дельты: серверные поля
// авторитетны, pending действия переналожены поверх свежего состояния.
type Callback func(docs []*models.CachedDocument)

// Resubscribe backoff bounds
const (
	resubscribeBase = 500 * time.Millisecond
	resubscribeCap  = 30 * time.Second

	// resubscribeReportAfter число подряд неудачных попыток переподписки,
	// после которого сбой попадает в метрики; попытки продолжаются
	resubscribeReportAfter = 5
)

// Manager зеркалирует изменения удаленных коллекций в merge view.
// Каждая подписка владеет ровно одним удаленным потоком; unsubscribe
// освобождает соединение немедленно.
type Manager struct {
	remote    remote.Store
	view      *cache.MergeView
	collector *metrics.Collector
	logger    *slog.Logger
	subs      map[string]*subscription
	mu        sync.Mutex
	wg        sync.WaitGroup

	backoffBase time.Duration
	backoffCap  time.Duration
}

type subscription struct {
	cancel     context.CancelFunc
	stream     remote.Subscription
	id         string
	collection string
	callback   Callback
	mu         sync.Mutex
}

// setStream запоминает текущий удаленный поток для быстрого закрытия
func (s *subscription) setStream(stream remote.Subscription) {
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
}

// closeStream разрывает текущий удаленный поток, если он открыт
func (s *subscription) closeStream() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
}

// NewManager создает менеджер подписок
func NewManager(remoteStore remote.Store, view *cache.MergeView, collector *metrics.Collector, logger *slog.Logger) *Manager {
	return &Manager{
		remote:      remoteStore,
		view:        view,
		collector:   collector,
		logger:      logger,
		subs:        make(map[string]*subscription),
		backoffBase: resubscribeBase,
		backoffCap:  resubscribeCap,
	}
}

// Subscribe открывает live подписку на коллекцию и возвращает ее handle
func (m *Manager) Subscribe(ctx context.Context, collection string, cb Callback) (string, error) {
	if cb == nil {
		return "", fmt.Errorf("callback is required")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:         uuid.New().String(),
		collection: collection,
		callback:   cb,
		cancel:     cancel,
	}

	m.mu.Lock()
	m.subs[sub.id] = sub
	m.mu.Unlock()

	m.collector.ListenerAdded()

	m.wg.Add(1)
	go m.run(subCtx, sub)

	m.logger.Info("listener subscribed", "collection", collection, "subscription_id", sub.id)
	return sub.id, nil
}

// Unsubscribe закрывает подписку и ее удаленный поток.
// Неизвестный handle — no-op.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	sub, ok := m.subs[id]
	if ok {
		delete(m.subs, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	sub.cancel()
	sub.closeStream()
	m.collector.ListenerRemoved()
	m.logger.Info("listener unsubscribed", "collection", sub.collection, "subscription_id", id)
}

// Close закрывает все подписки и ждет завершения их горутин
func (m *Manager) Close() {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.subs = make(map[string]*subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		sub.closeStream()
		m.collector.ListenerRemoved()
	}
	m.wg.Wait()
}

// Active возвращает число открытых подписок
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// run держит удаленный поток открытым, пока подписка жива.
// Ошибки потока лечатся переподпиской с backoff; уже закешированные
// данные при этом не отбрасываются.
func (m *Manager) run(ctx context.Context, sub *subscription) {
	defer m.wg.Done()

	for {
		stream, err := m.subscribe(ctx, sub)
		if err != nil {
			if ctx.Err() == nil {
				// Постоянный сбой: фиксируем в метриках, кеш не трогаем
				m.collector.RecordError(models.ErrorRecord{
					Time:       time.Now(),
					Collection: sub.collection,
					Message:    fmt.Sprintf("subscription failed: %v", err),
				})
				m.logger.Error("subscription failed permanently",
					"collection", sub.collection, "error", err)
			}
			return
		}

		sub.setStream(stream)
		m.pump(ctx, sub, stream)
		sub.closeStream()

		if ctx.Err() != nil {
			return
		}

		if err := stream.Err(); err != nil {
			m.logger.Warn("subscription stream error, resubscribing",
				"collection", sub.collection, "error", err)
		}
	}
}

// subscribe устанавливает удаленный поток с экспоненциальным backoff.
// Сервер, недоступный resubscribeReportAfter попыток подряд, фиксируется
// в метриках как мертвый поток; переподписка при этом не прекращается.
func (m *Manager) subscribe(ctx context.Context, sub *subscription) (remote.Subscription, error) {
	backoff := retry.WithCappedDuration(m.backoffCap, retry.NewExponential(m.backoffBase))
	backoff = retry.WithJitterPercent(20, backoff)

	failures := 0
	var stream remote.Subscription
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, err := m.remote.Subscribe(ctx, sub.collection)
		if err != nil {
			if errors.Is(err, remote.ErrPermissionDenied) {
				return err // не повторяем
			}
			failures++
			if failures == resubscribeReportAfter {
				m.collector.RecordError(models.ErrorRecord{
					Time:       time.Now(),
					Collection: sub.collection,
					Message:    fmt.Sprintf("change stream unavailable after %d attempts: %v", failures, err),
				})
				m.logger.Error("change stream unavailable, still retrying",
					"collection", sub.collection, "attempts", failures, "error", err)
			}
			return retry.RetryableError(err)
		}
		stream = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// pump переносит события потока в merge view и дергает callback подписчика
func (m *Manager) pump(ctx context.Context, sub *subscription, stream remote.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := m.applyEvent(ctx, event); err != nil {
				m.logger.Warn("failed to apply change event",
					"collection", event.Collection, "doc_id", event.ID, "error", err)
				continue
			}

			m.collector.UpdateReceived(1)

			// Снимок собирается заново на каждый push: локальные дельты
			// переналагаются на свежие серверные данные, без мерцания
			docs, err := m.view.ReadCollection(ctx, sub.collection)
			if err != nil {
				m.logger.Warn("failed to read collection snapshot",
					"collection", sub.collection, "error", err)
				continue
			}
			sub.callback(docs)
		}
	}
}

// applyEvent переносит одно серверное изменение в merge view
func (m *Manager) applyEvent(ctx context.Context, event api.ChangeEvent) error {
	if event.Type == api.ChangeRemoved {
		return m.view.Forget(ctx, event.Collection, event.ID)
	}

	return m.view.ApplyRemote(ctx, &models.CachedDocument{
		Collection:  event.Collection,
		ID:          event.ID,
		Payload:     event.Payload,
		Version:     event.Version,
		LastUpdated: time.Now(),
	})
}
