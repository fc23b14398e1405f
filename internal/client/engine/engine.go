package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/caresync/internal/client/cache"
	"github.com/iudanet/caresync/internal/client/conflict"
	"github.com/iudanet/caresync/internal/client/listener"
	"github.com/iudanet/caresync/internal/client/metrics"
	"github.com/iudanet/caresync/internal/client/netmon"
	"github.com/iudanet/caresync/internal/client/oplog"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
	"github.com/iudanet/caresync/internal/validation"
)

// ErrValidation indicates the action was rejected before persistence
var ErrValidation = errors.New("validation failed")

// Storage объединяет durable хранилища клиента.
// *boltdb.Storage реализует все четыре интерфейса.
type Storage interface {
	storage.ActionStorage
	storage.ConflictStorage
	storage.CacheStorage
	storage.MetadataStorage
}

// Config настройки движка синхронизации
type Config struct {
	DefaultStrategy models.ResolutionStrategy // стратегия автоматического разрешения конфликтов
	Network         netmon.Config
	Probe           netmon.Probe  // проверка доступности удаленного хранилища
	RetryBase       time.Duration // базовая задержка экспоненциального backoff
	RetryCap        time.Duration // потолок задержки между повторами
	MaxAttempts     uint64        // лимит попыток на действие, включая первую
	SyncWorkers     int           // размер пула воркеров drain прохода
	AutoResolve     bool          // применять DefaultStrategy сразу при обнаружении конфликта
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		SyncWorkers:     4,
		MaxAttempts:     5,
		RetryBase:       500 * time.Millisecond,
		RetryCap:        30 * time.Second,
		DefaultStrategy: models.StrategyServerWins,
		AutoResolve:     true,
		Network:         netmon.DefaultConfig(),
	}
}

// Engine оркестрирует offline-first синхронизацию: журнал мутаций,
// merge view, монитор сети, resolver конфликтов и live подписки.
// Один экземпляр на процесс/сессию, явный Start/Stop, все зависимости
// инжектируются — никаких глобальных переменных.
type Engine struct {
	remote    remote.Store
	store     Storage
	log       *oplog.Log
	view      *cache.MergeView
	resolver  *conflict.Resolver
	listeners *listener.Manager
	monitor   *netmon.Monitor
	collector *metrics.Collector
	logger    *slog.Logger

	cancel context.CancelFunc
	runCtx context.Context

	onConflict      func(*models.ConflictRecord)
	onSyncError     func(models.ErrorRecord)
	onNetworkChange func(bool)

	cfg      Config
	mu       sync.Mutex
	wg       sync.WaitGroup
	draining atomic.Bool
	started  atomic.Bool
}

// New собирает движок из конфигурации и зависимостей
func New(cfg Config, remoteStore remote.Store, store Storage, logger *slog.Logger) *Engine {
	if cfg.SyncWorkers <= 0 {
		cfg.SyncWorkers = DefaultConfig().SyncWorkers
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultConfig().RetryBase
	}
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = DefaultConfig().RetryCap
	}
	if !cfg.DefaultStrategy.Valid() {
		cfg.DefaultStrategy = models.StrategyServerWins
	}
	if cfg.Probe == nil {
		// Без probe считаем сеть всегда доступной
		cfg.Probe = func(ctx context.Context) bool { return true }
	}

	collector := metrics.NewCollector()
	view := cache.NewMergeView(store, logger)
	log := oplog.New(store, logger)
	view.SetPendingSource(log)

	e := &Engine{
		cfg:       cfg,
		remote:    remoteStore,
		store:     store,
		log:       log,
		view:      view,
		collector: collector,
		logger:    logger,
	}

	e.resolver = conflict.NewResolver(remoteStore, view, log, store, collector, logger)
	e.listeners = listener.NewManager(remoteStore, view, collector, logger)
	e.monitor = netmon.NewMonitor(cfg.Probe, cfg.Network, logger)

	// Обработчик перехода сети регистрируется ровно один раз:
	// Stop/Start цикл не должен накапливать дубликаты
	e.monitor.OnChange(func(online bool) {
		e.mu.Lock()
		cb := e.onNetworkChange
		e.mu.Unlock()
		if cb != nil {
			cb(online)
		}
		if online {
			e.triggerDrain()
		}
	})

	// Терминальные сбои никогда не теряются молча
	log.SetFailureHandler(func(action *models.OfflineAction, cause error) {
		rec := models.ErrorRecord{
			Time:       time.Now(),
			Collection: action.Collection,
			DocumentID: action.DocumentID,
			Op:         action.Op,
			Message:    cause.Error(),
		}
		collector.RecordError(rec)
		e.mu.Lock()
		cb := e.onSyncError
		e.mu.Unlock()
		if cb != nil {
			cb(rec)
		}
	})

	return e
}

// OnConflictDetected регистрирует callback обнаружения конфликта
func (e *Engine) OnConflictDetected(fn func(*models.ConflictRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConflict = fn
}

// OnSyncError регистрирует callback терминальных ошибок синхронизации
func (e *Engine) OnSyncError(fn func(models.ErrorRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSyncError = fn
}

// OnNetworkChange регистрирует callback переходов online/offline
func (e *Engine) OnNetworkChange(fn func(bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onNetworkChange = fn
}

// OnMetricsChanged регистрирует callback изменения метрик
func (e *Engine) OnMetricsChanged(fn func(models.SyncMetrics)) {
	e.collector.OnChanged(fn)
}

// Start восстанавливает состояние после рестарта и запускает монитор сети.
// Переход offline→online запускает ровно один drain проход.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already started")
	}

	e.runCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if err := e.view.Load(ctx); err != nil {
		return err
	}
	if err := e.log.Load(ctx); err != nil {
		return err
	}

	pending, err := e.resolver.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending conflicts: %w", err)
	}
	e.collector.SetConflictsPending(len(pending))
	e.collector.SetQueueSize(e.log.Size())

	if ts, err := e.store.GetLastSyncTime(ctx); err == nil && ts > 0 {
		e.collector.SyncCompleted(time.Unix(ts, 0))
	}

	e.monitor.Start(e.runCtx)

	e.logger.Info("sync engine started",
		"queue_size", e.log.Size(),
		"conflicts_pending", len(pending))
	return nil
}

// Stop останавливает монитор, подписки и ждет завершения drain прохода
func (e *Engine) Stop() {
	if !e.started.CompareAndSwap(true, false) {
		return
	}
	e.cancel()
	e.monitor.Stop()
	e.listeners.Close()
	e.wg.Wait()
	e.logger.Info("sync engine stopped")
}

// EnqueueCreate ставит в очередь создание документа.
// Пустой id — идентификатор генерируется на клиенте.
// Возвращает id документа.
func (e *Engine) EnqueueCreate(ctx context.Context, collection, id string, payload map[string]any) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if payload == nil {
		return "", fmt.Errorf("%w: payload is required for create", ErrValidation)
	}
	if err := e.enqueue(ctx, models.OpCreate, collection, id, payload, 0); err != nil {
		return "", err
	}
	return id, nil
}

// EnqueueUpdate ставит в очередь частичное обновление документа.
// expectedVersion снимается с последнего известного серверного снимка.
func (e *Engine) EnqueueUpdate(ctx context.Context, collection, id string, payload map[string]any) error {
	if payload == nil {
		return fmt.Errorf("%w: payload is required for update", ErrValidation)
	}
	return e.enqueue(ctx, models.OpUpdate, collection, id, payload, e.knownVersion(collection, id))
}

// EnqueueDelete ставит в очередь удаление документа
func (e *Engine) EnqueueDelete(ctx context.Context, collection, id string) error {
	return e.enqueue(ctx, models.OpDelete, collection, id, nil, e.knownVersion(collection, id))
}

// enqueue валидирует и персистит действие; merge view видит его сразу
func (e *Engine) enqueue(ctx context.Context, op, collection, id string, payload map[string]any, expectedVersion int64) error {
	if err := validation.ValidateCollection(collection); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validation.ValidateDocumentID(id); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	action := &models.OfflineAction{
		ID:              uuid.New().String(),
		Op:              op,
		Collection:      collection,
		DocumentID:      id,
		Payload:         payload,
		ExpectedVersion: expectedVersion,
	}

	// Ошибка durable записи фатальна для вызова и возвращается синхронно
	if err := e.log.Enqueue(ctx, action); err != nil {
		return err
	}

	e.collector.SetQueueSize(e.log.Size())

	if e.monitor.Online() {
		e.triggerDrain()
	}
	return nil
}

// knownVersion возвращает версию последнего известного серверного снимка.
// 0 — документ серверу еще не известен.
func (e *Engine) knownVersion(collection, id string) int64 {
	if doc, ok := e.view.Remote(collection, id); ok {
		return doc.Version
	}
	return 0
}

// Read возвращает документ из merge view: серверный снимок с наложенной
// локальной дельтой, если она есть
func (e *Engine) Read(ctx context.Context, collection, id string) (*models.CachedDocument, error) {
	return e.view.Read(ctx, collection, id)
}

// ReadCollection возвращает все видимые документы коллекции
func (e *Engine) ReadCollection(ctx context.Context, collection string) ([]*models.CachedDocument, error) {
	return e.view.ReadCollection(ctx, collection)
}

// Subscribe открывает live подписку на коллекцию
func (e *Engine) Subscribe(collection string, cb listener.Callback) (string, error) {
	if !e.started.Load() {
		return "", fmt.Errorf("engine is not started")
	}
	return e.listeners.Subscribe(e.runCtx, collection, cb)
}

// Unsubscribe закрывает подписку по handle
func (e *Engine) Unsubscribe(id string) {
	e.listeners.Unsubscribe(id)
}

// ForceSyncAll выполняет полный drain проход синхронно.
// Если drain уже идет, второй не запускается.
func (e *Engine) ForceSyncAll(ctx context.Context) error {
	return e.drain(ctx)
}

// ResolveConflict применяет стратегию к конфликту документа и
// продолжает выкачку его очереди
func (e *Engine) ResolveConflict(ctx context.Context, collection, id string, strategy models.ResolutionStrategy) error {
	if err := e.resolver.Resolve(ctx, collection, id, strategy); err != nil {
		return err
	}
	e.collector.SetQueueSize(e.log.Size())
	if e.monitor.Online() {
		e.triggerDrain()
	}
	return nil
}

// Conflicts возвращает неразрешенные конфликты
func (e *Engine) Conflicts(ctx context.Context) ([]*models.ConflictRecord, error) {
	return e.resolver.Pending(ctx)
}

// Metrics возвращает снимок метрик движка
func (e *Engine) Metrics() models.SyncMetrics {
	return e.collector.Snapshot()
}

// ClearOfflineData удаляет очередь, конфликты и кеш; метрики сбрасываются.
// Удаленное хранилище не затрагивается.
func (e *Engine) ClearOfflineData(ctx context.Context) error {
	if err := e.log.Clear(ctx); err != nil {
		return err
	}
	if err := e.store.ClearConflicts(ctx); err != nil {
		return fmt.Errorf("failed to clear conflicts: %w", err)
	}
	if err := e.view.Clear(ctx); err != nil {
		return err
	}
	e.collector.Reset()
	e.logger.Info("offline data cleared")
	return nil
}

// Online возвращает опубликованное состояние сети
func (e *Engine) Online() bool {
	return e.monitor.Online()
}

// triggerDrain запускает drain проход в фоне; перекрывающиеся drain
// проходы запрещены — guard внутри drain
func (e *Engine) triggerDrain() {
	if !e.started.Load() {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.drain(e.runCtx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("drain pass finished with error", "error", err)
		}
	}()
}
