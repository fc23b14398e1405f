package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Probe проверяет доступность удаленного хранилища.
// Возвращает true, если соединение есть.
type Probe func(ctx context.Context) bool

// Default monitor timings
const (
	DefaultInterval = 5 * time.Second
	DefaultDebounce = 2 * time.Second
)

// Config настройки монитора сети
type Config struct {
	Interval time.Duration // период опроса probe
	Debounce time.Duration // окно стабильности перед публикацией перехода
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Debounce: DefaultDebounce,
	}
}

// Monitor единственный источник правды о состоянии сети.
// Переход публикуется только после того, как новое состояние продержалось
// стабильно в течение debounce окна — защита от sync штормов на нестабильной связи.
type Monitor struct {
	probe    Probe
	logger   *slog.Logger
	cancel   context.CancelFunc
	timer    *time.Timer
	handlers []func(online bool)
	cfg      Config
	mu       sync.Mutex
	wg       sync.WaitGroup
	observed bool
	pending  bool
	online   bool
	started  bool
}

// NewMonitor создает монитор сети. Начальное состояние — offline,
// первый успешный probe публикует online после debounce окна.
func NewMonitor(probe Probe, cfg Config, logger *slog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Monitor{
		probe:  probe,
		cfg:    cfg,
		logger: logger,
	}
}

// Online возвращает текущее опубликованное состояние
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnChange регистрирует обработчик перехода online/offline.
// Обработчик не должен блокировать надолго: он вызывается из таймера монитора.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// Start запускает цикл опроса probe
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(ctx)
}

// Stop останавливает опрос и отменяет отложенную публикацию
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	if m.timer != nil {
		m.timer.Stop()
		m.pending = false
	}
	m.started = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	// Первый опрос сразу, не дожидаясь тика
	m.Observe(m.probe(ctx))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Observe(m.probe(ctx))
		}
	}
}

// Observe сообщает монитору наблюдаемое состояние сети.
// Вызывается из цикла опроса; движок может вызывать его напрямую,
// например при ошибке транспорта или успешном запросе.
func (m *Monitor) Observe(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending && online == m.observed {
		// Кандидат уже ждет своего debounce окна
		return
	}

	m.observed = online

	// Наблюдение совпало с опубликованным состоянием — отменяем кандидата
	if online == m.online {
		if m.timer != nil {
			m.timer.Stop()
		}
		m.pending = false
		return
	}

	// Новый кандидат: публикация только если состояние продержится окно
	if m.timer != nil {
		m.timer.Stop()
	}
	m.pending = true
	m.timer = time.AfterFunc(m.cfg.Debounce, m.publish)
}

// publish фиксирует переход после стабильного debounce окна
func (m *Monitor) publish() {
	m.mu.Lock()
	if !m.pending || m.observed == m.online {
		m.pending = false
		m.mu.Unlock()
		return
	}
	m.pending = false
	m.online = m.observed
	state := m.online
	handlers := make([]func(bool), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.logger.Info("network state changed", "online", state)
	for _, fn := range handlers {
		fn(state)
	}
}
