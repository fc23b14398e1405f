package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/caresync/internal/server/storage/sqlite"
	"github.com/iudanet/caresync/pkg/api"
)

func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// setupDocumentsMux собирает маршруты документов поверх in-memory SQLite
func setupDocumentsMux(t *testing.T) (*http.ServeMux, *Hub) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	logger := setupTestLogger()
	hub := NewHub(logger)
	handler := NewDocumentsHandler(logger, store, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/{collection}/{id}", handler.GetDocument)
	mux.HandleFunc("PUT /api/v1/docs/{collection}/{id}", handler.WriteDocument)
	return mux, hub
}

func putDocument(t *testing.T, mux *http.ServeMux, path string, req api.WriteRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestWriteDocument_CreateAndGet(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	w := putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload:         map[string]any{"dose": "5mg"},
		ExpectedVersion: 0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.WriteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Version)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/docs/medications/med_1", nil)
	get := httptest.NewRecorder()
	mux.ServeHTTP(get, r)
	require.Equal(t, http.StatusOK, get.Code)

	var doc api.Document
	require.NoError(t, json.NewDecoder(get.Body).Decode(&doc))
	assert.Equal(t, "5mg", doc.Payload["dose"])
	assert.Equal(t, int64(1), doc.Version)
}

func TestWriteDocument_VersionConflict(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	w := putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload: map[string]any{"dose": "5mg"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Писатель с устаревшей версией получает 409 с фактической версией
	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload:         map[string]any{"dose": "10mg"},
		ExpectedVersion: 5,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	assert.Equal(t, api.ErrCodeVersionConflict, errResp.Code)
	assert.Equal(t, int64(1), errResp.ActualVersion)
}

func TestGetDocument_NotFound(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/docs/medications/missing", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	assert.Equal(t, api.ErrCodeNotFound, errResp.Code)
}

func TestGetDocument_TombstoneLooksAbsent(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	w := putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload: map[string]any{"dose": "5mg"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		ExpectedVersion: 1,
		Delete:          true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/docs/medications/med_1", nil)
	get := httptest.NewRecorder()
	mux.ServeHTTP(get, r)
	assert.Equal(t, http.StatusNotFound, get.Code)
}

func TestWriteDocument_ReadOnlyRoleForbidden(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	body, err := json.Marshal(api.WriteRequest{Payload: map[string]any{"dose": "5mg"}})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/docs/medications/med_1", bytes.NewReader(body))
	r = r.WithContext(context.WithValue(r.Context(), RoleKey, RoleReadOnly))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	assert.Equal(t, api.ErrCodePermission, errResp.Code)
}

func TestWriteDocument_Validation(t *testing.T) {
	mux, _ := setupDocumentsMux(t)

	// Недопустимое имя коллекции
	w := putDocument(t, mux, "/api/v1/docs/bad.name/med_1", api.WriteRequest{
		Payload: map[string]any{"dose": "5mg"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Запись без payload и без delete
	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Битое тело запроса
	r := httptest.NewRequest(http.MethodPut, "/api/v1/docs/medications/med_1", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteDocument_BroadcastsChangeEvents(t *testing.T) {
	mux, hub := setupDocumentsMux(t)

	sub := hub.register("medications")
	defer hub.unregister("medications", sub)

	// Create → added
	w := putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload: map[string]any{"dose": "5mg"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	event := <-sub.events
	assert.Equal(t, api.ChangeAdded, event.Type)
	assert.Equal(t, "med_1", event.ID)
	assert.Equal(t, int64(1), event.Version)

	// Update → modified
	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload:         map[string]any{"dose": "10mg"},
		ExpectedVersion: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	event = <-sub.events
	assert.Equal(t, api.ChangeModified, event.Type)
	assert.Equal(t, "10mg", event.Payload["dose"])

	// Delete → removed, payload не раскрывается
	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		ExpectedVersion: 2,
		Delete:          true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	event = <-sub.events
	assert.Equal(t, api.ChangeRemoved, event.Type)
	assert.Nil(t, event.Payload)
	assert.Equal(t, int64(3), event.Version)
}

func TestWriteDocument_ConflictNotBroadcast(t *testing.T) {
	mux, hub := setupDocumentsMux(t)

	w := putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload: map[string]any{"dose": "5mg"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	sub := hub.register("medications")
	defer hub.unregister("medications", sub)

	w = putDocument(t, mux, "/api/v1/docs/medications/med_1", api.WriteRequest{
		Payload:         map[string]any{"dose": "10mg"},
		ExpectedVersion: 9,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	select {
	case event := <-sub.events:
		t.Fatalf("unexpected event broadcast on conflict: %+v", event)
	default:
	}
}
