package listener

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/caresync/internal/client/cache"
	"github.com/iudanet/caresync/internal/client/metrics"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
	"github.com/iudanet/caresync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeStream канальный поток изменений для тестов
type fakeStream struct {
	events chan api.ChangeEvent
	err    error
	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan api.ChangeEvent, 8)}
}

func (s *fakeStream) Events() <-chan api.ChangeEvent { return s.events }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// fail закрывает поток с ошибкой, имитируя обрыв соединения
func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// stubPending статичный источник pending действий для merge view
type stubPending struct {
	mu      sync.Mutex
	actions []*models.OfflineAction
}

func (s *stubPending) PendingForDocument(collection, id string) []*models.OfflineAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OfflineAction
	for _, a := range s.actions {
		if a.Collection == collection && a.DocumentID == id {
			out = append(out, a)
		}
	}
	return out
}

func (s *stubPending) PendingForCollection(collection string) []*models.OfflineAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OfflineAction
	for _, a := range s.actions {
		if a.Collection == collection {
			out = append(out, a)
		}
	}
	return out
}

func newTestView(pending *stubPending) *cache.MergeView {
	mock := &storage.CacheStorageMock{
		SaveDocumentFunc:    func(ctx context.Context, doc *models.CachedDocument) error { return nil },
		DeleteDocumentFunc:  func(ctx context.Context, collection, id string) error { return nil },
		ClearDocumentsFunc:  func(ctx context.Context) error { return nil },
		GetAllDocumentsFunc: func(ctx context.Context) ([]*models.CachedDocument, error) { return nil, nil },
	}
	view := cache.NewMergeView(mock, testLogger())
	view.SetPendingSource(pending)
	return view
}

func TestSubscribe_RequiresCallback(t *testing.T) {
	m := NewManager(&remote.StoreMock{}, newTestView(&stubPending{}), metrics.NewCollector(), testLogger())

	_, err := m.Subscribe(context.Background(), "medications", nil)
	assert.Error(t, err)
}

func TestSubscribe_DeliversSnapshotPerEvent(t *testing.T) {
	ctx := context.Background()
	stream := newFakeStream()
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			return stream, nil
		},
	}
	collector := metrics.NewCollector()
	m := NewManager(store, newTestView(&stubPending{}), collector, testLogger())
	defer m.Close()

	snapshots := make(chan []*models.CachedDocument, 8)
	id, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {
		snapshots <- docs
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Active())

	stream.events <- api.ChangeEvent{
		Type:       api.ChangeAdded,
		Collection: "medications",
		ID:         "med_1",
		Payload:    map[string]any{"dose": "5mg"},
		Version:    1,
	}

	select {
	case docs := <-snapshots:
		require.Len(t, docs, 1)
		assert.Equal(t, "med_1", docs[0].ID)
		assert.Equal(t, int64(1), docs[0].Version)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}

	assert.Equal(t, 1, collector.Snapshot().UpdatesReceived)
	m.Unsubscribe(id)
	assert.Equal(t, 0, m.Active())
}

func TestSubscribe_RemovedEventForgetsDocument(t *testing.T) {
	ctx := context.Background()
	stream := newFakeStream()
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			return stream, nil
		},
	}
	m := NewManager(store, newTestView(&stubPending{}), metrics.NewCollector(), testLogger())
	defer m.Close()

	snapshots := make(chan []*models.CachedDocument, 8)
	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {
		snapshots <- docs
	})
	require.NoError(t, err)

	stream.events <- api.ChangeEvent{
		Type:       api.ChangeAdded,
		Collection: "medications",
		ID:         "med_1",
		Payload:    map[string]any{"dose": "5mg"},
		Version:    1,
	}
	stream.events <- api.ChangeEvent{
		Type:       api.ChangeRemoved,
		Collection: "medications",
		ID:         "med_1",
		Version:    2,
	}

	var last []*models.CachedDocument
	for i := 0; i < 2; i++ {
		select {
		case last = <-snapshots:
		case <-time.After(2 * time.Second):
			t.Fatal("callback was not invoked")
		}
	}
	assert.Empty(t, last)
}

func TestSubscribe_LocalDeltaReappliedOnEachPush(t *testing.T) {
	ctx := context.Background()
	stream := newFakeStream()
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			return stream, nil
		},
	}
	pending := &stubPending{actions: []*models.OfflineAction{{
		ID:         "a1",
		Op:         models.OpUpdate,
		Collection: "medications",
		DocumentID: "med_1",
		Payload:    map[string]any{"dose": "10mg"},
	}}}
	m := NewManager(store, newTestView(pending), metrics.NewCollector(), testLogger())
	defer m.Close()

	snapshots := make(chan []*models.CachedDocument, 8)
	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {
		snapshots <- docs
	})
	require.NoError(t, err)

	stream.events <- api.ChangeEvent{
		Type:       api.ChangeModified,
		Collection: "medications",
		ID:         "med_1",
		Payload:    map[string]any{"dose": "5mg", "prescriber": "dr_lee"},
		Version:    4,
	}

	select {
	case docs := <-snapshots:
		require.Len(t, docs, 1)
		// Локальная дельта наложена поверх свежего серверного снимка
		assert.Equal(t, models.SourceMerged, docs[0].Source)
		assert.Equal(t, "10mg", docs[0].Payload["dose"])
		assert.Equal(t, "dr_lee", docs[0].Payload["prescriber"])
		assert.Equal(t, int64(4), docs[0].Version)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestSubscribe_ResubscribesAfterStreamError(t *testing.T) {
	ctx := context.Background()

	first := newFakeStream()
	second := newFakeStream()
	var calls atomic.Int32
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			if calls.Add(1) == 1 {
				return first, nil
			}
			return second, nil
		},
	}
	m := NewManager(store, newTestView(&stubPending{}), metrics.NewCollector(), testLogger())
	defer m.Close()

	snapshots := make(chan []*models.CachedDocument, 8)
	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {
		snapshots <- docs
	})
	require.NoError(t, err)

	// Обрыв соединения: менеджер переподписывается с backoff
	first.fail(errors.New("connection reset"))

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	second.events <- api.ChangeEvent{
		Type:       api.ChangeAdded,
		Collection: "medications",
		ID:         "med_1",
		Payload:    map[string]any{"dose": "5mg"},
		Version:    1,
	}

	select {
	case docs := <-snapshots:
		require.Len(t, docs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked after resubscribe")
	}
}

func TestSubscribe_PermissionDeniedNotRetried(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			calls.Add(1)
			return nil, remote.ErrPermissionDenied
		},
	}
	collector := metrics.NewCollector()
	m := NewManager(store, newTestView(&stubPending{}), collector, testLogger())

	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(collector.Snapshot().RecentErrors) > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	m.Close()
}

func TestSubscribe_UnreachableStreamReportedInMetrics(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			calls.Add(1)
			return nil, &remote.TransientError{Err: errors.New("connection refused")}
		},
	}
	collector := metrics.NewCollector()
	m := NewManager(store, newTestView(&stubPending{}), collector, testLogger())
	m.backoffBase = time.Millisecond
	m.backoffCap = 5 * time.Millisecond
	defer m.Close()

	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {})
	require.NoError(t, err)

	// Постоянно недоступный сервер виден в метриках, кеш не трогается
	require.Eventually(t, func() bool {
		for _, rec := range collector.Snapshot().RecentErrors {
			if rec.Collection == "medications" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	// Переподписка после отчета не прекращается
	reportedAt := calls.Load()
	require.GreaterOrEqual(t, reportedAt, int32(resubscribeReportAfter))
	require.Eventually(t, func() bool {
		return calls.Load() > reportedAt
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, m.Active())
}

func TestClose_StopsAllSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := &remote.StoreMock{
		SubscribeFunc: func(ctx context.Context, collection string) (remote.Subscription, error) {
			return newFakeStream(), nil
		},
	}
	m := NewManager(store, newTestView(&stubPending{}), metrics.NewCollector(), testLogger())

	_, err := m.Subscribe(ctx, "medications", func(docs []*models.CachedDocument) {})
	require.NoError(t, err)
	_, err = m.Subscribe(ctx, "appointments", func(docs []*models.CachedDocument) {})
	require.NoError(t, err)
	require.Equal(t, 2, m.Active())

	m.Close()
	assert.Equal(t, 0, m.Active())
}
