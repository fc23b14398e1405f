package netmon

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestMonitor(debounce time.Duration) *Monitor {
	// Probe не используется: состояние подается через Observe напрямую
	probe := func(ctx context.Context) bool { return false }
	return NewMonitor(probe, Config{Interval: time.Hour, Debounce: debounce}, testLogger())
}

func TestMonitor_InitialStateOffline(t *testing.T) {
	m := newTestMonitor(20 * time.Millisecond)
	assert.False(t, m.Online())
}

func TestMonitor_PublishAfterDebounce(t *testing.T) {
	m := newTestMonitor(20 * time.Millisecond)

	var transitions atomic.Int32
	m.OnChange(func(online bool) {
		assert.True(t, online)
		transitions.Add(1)
	})

	m.Observe(true)

	// Переход не публикуется мгновенно
	assert.False(t, m.Online())

	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), transitions.Load())
}

func TestMonitor_FlapWithinWindowSuppressed(t *testing.T) {
	m := newTestMonitor(50 * time.Millisecond)

	var transitions atomic.Int32
	m.OnChange(func(online bool) {
		transitions.Add(1)
	})

	// Короткий всплеск связи внутри debounce окна
	m.Observe(true)
	time.Sleep(10 * time.Millisecond)
	m.Observe(false)

	time.Sleep(100 * time.Millisecond)

	assert.False(t, m.Online())
	assert.Equal(t, int32(0), transitions.Load())
}

func TestMonitor_RepeatedObservationSinglePublish(t *testing.T) {
	m := newTestMonitor(30 * time.Millisecond)

	var transitions atomic.Int32
	m.OnChange(func(online bool) {
		transitions.Add(1)
	})

	// Повторные наблюдения того же кандидата не перезапускают окно
	m.Observe(true)
	time.Sleep(10 * time.Millisecond)
	m.Observe(true)
	time.Sleep(10 * time.Millisecond)
	m.Observe(true)

	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), transitions.Load())
}

func TestMonitor_RoundTrip(t *testing.T) {
	m := newTestMonitor(10 * time.Millisecond)

	m.Observe(true)
	require.Eventually(t, m.Online, time.Second, 2*time.Millisecond)

	m.Observe(false)
	require.Eventually(t, func() bool { return !m.Online() }, time.Second, 2*time.Millisecond)
}

func TestMonitor_StopCancelsPending(t *testing.T) {
	m := newTestMonitor(30 * time.Millisecond)

	var transitions atomic.Int32
	m.OnChange(func(online bool) {
		transitions.Add(1)
	})

	m.Start(context.Background())
	m.Observe(true)
	m.Stop()

	time.Sleep(60 * time.Millisecond)

	assert.False(t, m.Online())
	assert.Equal(t, int32(0), transitions.Load())
}

func TestMonitor_StartPollsProbe(t *testing.T) {
	var probes atomic.Int32
	probe := func(ctx context.Context) bool {
		probes.Add(1)
		return true
	}
	m := NewMonitor(probe, Config{Interval: time.Hour, Debounce: 10 * time.Millisecond}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	defer m.Stop()

	// Первый опрос происходит сразу при старте
	require.Eventually(t, func() bool { return probes.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)
}
