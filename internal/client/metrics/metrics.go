package metrics

import (
	"sync"
	"time"

	"github.com/iudanet/caresync/internal/models"
)

// maxRecentErrors размер кольцевого буфера последних ошибок
const maxRecentErrors = 20

// Collector накапливает метрики движка синхронизации.
// Все мутации идут под мьютексом; читатели получают снимок по значению.
type Collector struct {
	lastSyncTime      time.Time
	onChanged         func(models.SyncMetrics)
	recentErrors      []models.ErrorRecord
	mu                sync.Mutex
	listenersActive   int
	updatesReceived   int
	syncQueueSize     int
	conflictsPending  int
	conflictsResolved int
}

// NewCollector создает пустой сборщик метрик
func NewCollector() *Collector {
	return &Collector{}
}

// OnChanged регистрирует callback, вызываемый после каждого изменения метрик
func (c *Collector) OnChanged(fn func(models.SyncMetrics)) {
	c.mu.Lock()
	c.onChanged = fn
	c.mu.Unlock()
}

// Snapshot возвращает текущий снимок метрик
func (c *Collector) Snapshot() models.SyncMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collector) snapshotLocked() models.SyncMetrics {
	errs := make([]models.ErrorRecord, len(c.recentErrors))
	copy(errs, c.recentErrors)
	return models.SyncMetrics{
		ListenersActive:   c.listenersActive,
		UpdatesReceived:   c.updatesReceived,
		SyncQueueSize:     c.syncQueueSize,
		ConflictsPending:  c.conflictsPending,
		ConflictsResolved: c.conflictsResolved,
		LastSyncTime:      c.lastSyncTime,
		RecentErrors:      errs,
	}
}

// update выполняет мутацию и дергает onChanged вне блокировки
func (c *Collector) update(fn func()) {
	c.mu.Lock()
	fn()
	onChanged := c.onChanged
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if onChanged != nil {
		onChanged(snap)
	}
}

// ListenerAdded увеличивает счетчик активных подписок
func (c *Collector) ListenerAdded() {
	c.update(func() { c.listenersActive++ })
}

// ListenerRemoved уменьшает счетчик активных подписок
func (c *Collector) ListenerRemoved() {
	c.update(func() {
		if c.listenersActive > 0 {
			c.listenersActive--
		}
	})
}

// UpdateReceived фиксирует полученный батч изменений
func (c *Collector) UpdateReceived(count int) {
	c.update(func() { c.updatesReceived += count })
}

// SetQueueSize выставляет текущий размер очереди синхронизации
func (c *Collector) SetQueueSize(n int) {
	c.update(func() { c.syncQueueSize = n })
}

// SetConflictsPending выставляет число неразрешенных конфликтов
func (c *Collector) SetConflictsPending(n int) {
	c.update(func() { c.conflictsPending = n })
}

// ConflictDetected фиксирует новый неразрешенный конфликт
func (c *Collector) ConflictDetected() {
	c.update(func() { c.conflictsPending++ })
}

// ConflictResolved фиксирует разрешенный конфликт
func (c *Collector) ConflictResolved() {
	c.update(func() {
		c.conflictsResolved++
		if c.conflictsPending > 0 {
			c.conflictsPending--
		}
	})
}

// SyncCompleted фиксирует успешное завершение drain прохода
func (c *Collector) SyncCompleted(at time.Time) {
	c.update(func() { c.lastSyncTime = at })
}

// RecordError добавляет запись в кольцевой буфер последних ошибок
func (c *Collector) RecordError(rec models.ErrorRecord) {
	c.update(func() {
		c.recentErrors = append(c.recentErrors, rec)
		if len(c.recentErrors) > maxRecentErrors {
			c.recentErrors = c.recentErrors[len(c.recentErrors)-maxRecentErrors:]
		}
	})
}

// Reset сбрасывает метрики (используется при очистке offline данных)
func (c *Collector) Reset() {
	c.update(func() {
		c.listenersActive = 0
		c.updatesReceived = 0
		c.syncQueueSize = 0
		c.conflictsPending = 0
		c.conflictsResolved = 0
		c.lastSyncTime = time.Time{}
		c.recentErrors = nil
	})
}
