package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/caresync/internal/client/storage"
	"github.com/iudanet/caresync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubPending статичный источник pending действий
type stubPending struct {
	actions []*models.OfflineAction
}

func (s *stubPending) PendingForDocument(collection, id string) []*models.OfflineAction {
	var out []*models.OfflineAction
	for _, a := range s.actions {
		if a.Collection == collection && a.DocumentID == id {
			out = append(out, a)
		}
	}
	return out
}

func (s *stubPending) PendingForCollection(collection string) []*models.OfflineAction {
	var out []*models.OfflineAction
	for _, a := range s.actions {
		if a.Collection == collection {
			out = append(out, a)
		}
	}
	return out
}

func newTestView(pending *stubPending) (*MergeView, *storage.CacheStorageMock) {
	mock := &storage.CacheStorageMock{
		SaveDocumentFunc: func(ctx context.Context, doc *models.CachedDocument) error {
			return nil
		},
		DeleteDocumentFunc: func(ctx context.Context, collection, id string) error {
			return nil
		},
		ClearDocumentsFunc: func(ctx context.Context) error {
			return nil
		},
		GetAllDocumentsFunc: func(ctx context.Context) ([]*models.CachedDocument, error) {
			return nil, nil
		},
	}
	view := NewMergeView(mock, testLogger())
	if pending != nil {
		view.SetPendingSource(pending)
	}
	return view, mock
}

func remoteDoc(collection, id string, version int64, payload map[string]any) *models.CachedDocument {
	return &models.CachedDocument{
		Collection:  collection,
		ID:          id,
		Payload:     payload,
		Version:     version,
		Source:      models.SourceRemote,
		LastUpdated: time.Now(),
	}
}

func TestRead_NotFound(t *testing.T) {
	ctx := context.Background()
	view, _ := newTestView(&stubPending{})

	_, err := view.Read(ctx, "medications", "missing")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestApplyRemote_WriteThrough(t *testing.T) {
	ctx := context.Background()
	view, mock := newTestView(&stubPending{})

	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_1", 3, map[string]any{"dose": "5mg"})))

	doc, err := view.Read(ctx, "medications", "med_1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceRemote, doc.Source)
	assert.Equal(t, int64(3), doc.Version)
	assert.Equal(t, "5mg", doc.Payload["dose"])

	// Снимок ушел в durable хранилище
	require.Len(t, mock.SaveDocumentCalls(), 1)
	assert.Equal(t, "med_1", mock.SaveDocumentCalls()[0].Doc.ID)
}

func TestRead_OptimisticCreate(t *testing.T) {
	ctx := context.Background()
	pending := &stubPending{actions: []*models.OfflineAction{{
		ID:         "a1",
		Op:         models.OpCreate,
		Collection: "appointments",
		DocumentID: "apt_1",
		Payload:    map[string]any{"title": "cardiology"},
	}}}
	view, _ := newTestView(pending)

	// Документ еще не был на сервере, но уже виден локально
	doc, err := view.Read(ctx, "appointments", "apt_1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocalOptimistic, doc.Source)
	assert.Equal(t, "cardiology", doc.Payload["title"])
	assert.Zero(t, doc.Version)
}

func TestRead_FieldLevelOverlay(t *testing.T) {
	ctx := context.Background()
	pending := &stubPending{actions: []*models.OfflineAction{{
		ID:         "a1",
		Op:         models.OpUpdate,
		Collection: "medications",
		DocumentID: "med_1",
		Payload:    map[string]any{"dose": "10mg"},
	}}}
	view, _ := newTestView(pending)

	base := remoteDoc("medications", "med_1", 2, map[string]any{"dose": "5mg", "name": "lisinopril"})
	require.NoError(t, view.ApplyRemote(ctx, base))

	doc, err := view.Read(ctx, "medications", "med_1")
	require.NoError(t, err)
	// Локальное поле побеждает, нетронутые поля серверные
	assert.Equal(t, models.SourceMerged, doc.Source)
	assert.Equal(t, "10mg", doc.Payload["dose"])
	assert.Equal(t, "lisinopril", doc.Payload["name"])
	assert.Equal(t, int64(2), doc.Version)
}

func TestRead_OverlayDoesNotMutateSnapshot(t *testing.T) {
	ctx := context.Background()
	pending := &stubPending{actions: []*models.OfflineAction{{
		ID:         "a1",
		Op:         models.OpUpdate,
		Collection: "medications",
		DocumentID: "med_1",
		Payload:    map[string]any{"dose": "10mg"},
	}}}
	view, _ := newTestView(pending)

	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_1", 2, map[string]any{"dose": "5mg"})))

	_, err := view.Read(ctx, "medications", "med_1")
	require.NoError(t, err)

	// Чистый серверный снимок не затронут наложением
	remote, ok := view.Remote("medications", "med_1")
	require.True(t, ok)
	assert.Equal(t, "5mg", remote.Payload["dose"])
	assert.Equal(t, models.SourceRemote, remote.Source)
}

func TestRead_PendingDeleteHidesDocument(t *testing.T) {
	ctx := context.Background()
	pending := &stubPending{actions: []*models.OfflineAction{{
		ID:         "a1",
		Op:         models.OpDelete,
		Collection: "medications",
		DocumentID: "med_1",
	}}}
	view, _ := newTestView(pending)

	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_1", 2, map[string]any{"dose": "5mg"})))

	_, err := view.Read(ctx, "medications", "med_1")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestReadCollection_MergesPendingCreates(t *testing.T) {
	ctx := context.Background()
	pending := &stubPending{actions: []*models.OfflineAction{
		{
			ID:         "a1",
			Op:         models.OpCreate,
			Collection: "medications",
			DocumentID: "med_new",
			Payload:    map[string]any{"dose": "20mg"},
		},
		{
			ID:         "a2",
			Op:         models.OpDelete,
			Collection: "medications",
			DocumentID: "med_gone",
		},
	}}
	view, _ := newTestView(pending)

	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_1", 1, map[string]any{"dose": "5mg"})))
	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_gone", 1, map[string]any{"dose": "1mg"})))
	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("appointments", "apt_1", 1, map[string]any{"title": "x"})))

	docs, err := view.ReadCollection(ctx, "medications")
	require.NoError(t, err)

	ids := make(map[string]string, len(docs))
	for _, d := range docs {
		ids[d.ID] = d.Source
	}
	// Серверный документ + локальное создание; удаленный скрыт, чужая коллекция не видна
	require.Len(t, ids, 2)
	assert.Equal(t, models.SourceRemote, ids["med_1"])
	assert.Equal(t, models.SourceLocalOptimistic, ids["med_new"])
}

func TestForget_RemovesFromViewAndStorage(t *testing.T) {
	ctx := context.Background()
	view, mock := newTestView(&stubPending{})

	require.NoError(t, view.ApplyRemote(ctx, remoteDoc("medications", "med_1", 1, map[string]any{"dose": "5mg"})))
	require.NoError(t, view.Forget(ctx, "medications", "med_1"))

	_, err := view.Read(ctx, "medications", "med_1")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
	require.Len(t, mock.DeleteDocumentCalls(), 1)
}

func TestLoad_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	view, mock := newTestView(&stubPending{})
	mock.GetAllDocumentsFunc = func(ctx context.Context) ([]*models.CachedDocument, error) {
		return []*models.CachedDocument{
			remoteDoc("medications", "med_1", 4, map[string]any{"dose": "5mg"}),
		}, nil
	}

	require.NoError(t, view.Load(ctx))

	doc, err := view.Read(ctx, "medications", "med_1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
}

func TestReconcile_PrefersHigherVersion(t *testing.T) {
	local := []*models.CachedDocument{
		remoteDoc("medications", "med_1", 3, map[string]any{"dose": "old"}),
		remoteDoc("medications", "med_2", 1, map[string]any{"dose": "local"}),
	}
	fetched := []*models.CachedDocument{
		remoteDoc("medications", "med_1", 5, map[string]any{"dose": "new"}),
	}

	result := Reconcile(local, fetched)
	require.Len(t, result, 2)

	byID := make(map[string]*models.CachedDocument)
	for _, d := range result {
		byID[d.ID] = d
	}
	assert.Equal(t, int64(5), byID["med_1"].Version)
	assert.Equal(t, "new", byID["med_1"].Payload["dose"])
	assert.Equal(t, "local", byID["med_2"].Payload["dose"])
}

func TestReconcile_TieBreakOnLastUpdated(t *testing.T) {
	older := remoteDoc("medications", "med_1", 2, map[string]any{"dose": "older"})
	older.LastUpdated = time.Now().Add(-time.Hour)
	newer := remoteDoc("medications", "med_1", 2, map[string]any{"dose": "newer"})

	result := Reconcile([]*models.CachedDocument{older}, []*models.CachedDocument{newer})
	require.Len(t, result, 1)
	assert.Equal(t, "newer", result[0].Payload["dose"])
}
