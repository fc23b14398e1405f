package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/caresync/internal/server/storage"
	"github.com/iudanet/caresync/internal/validation"
	"github.com/iudanet/caresync/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id в контексте
	UserIDKey contextKey = "user_id"
	// RoleKey ключ для хранения роли пользователя в контексте
	RoleKey contextKey = "role"
)

// RoleReadOnly роль без права записи (наблюдатели из семьи)
const RoleReadOnly = "family_viewer"

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole извлекает роль пользователя из контекста запроса
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// Broadcaster рассылает изменение документа всем подписчикам коллекции
type Broadcaster interface {
	Broadcast(event api.ChangeEvent)
}

// DocumentsHandler handles versioned document reads and writes
type DocumentsHandler struct {
	logger  *slog.Logger
	storage storage.DocumentStorage
	hub     Broadcaster
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(logger *slog.Logger, docStorage storage.DocumentStorage, hub Broadcaster) *DocumentsHandler {
	return &DocumentsHandler{
		logger:  logger,
		storage: docStorage,
		hub:     hub,
	}
}

// GetDocument обрабатывает GET /api/v1/docs/{collection}/{id}
// Tombstone для читателя неотличим от отсутствующего документа
func (h *DocumentsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")

	if err := validateNames(collection, id); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, err.Error(), 0)
		return
	}

	doc, err := h.storage.GetDocument(r.Context(), collection, id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "document not found", 0)
			return
		}
		h.logger.Error("failed to get document", "collection", collection, "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if doc.Deleted {
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "document not found", 0)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, doc)
}

// WriteDocument обрабатывает PUT /api/v1/docs/{collection}/{id}
// Запись проходит только при совпадении expected_version с текущей версией;
// expected_version 0 означает create
func (h *DocumentsHandler) WriteDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")

	if err := validateNames(collection, id); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, err.Error(), 0)
		return
	}

	if role, ok := GetRole(r.Context()); ok && role == RoleReadOnly {
		writeError(w, http.StatusForbidden, api.ErrCodePermission, "role is read-only", 0)
		return
	}

	var req api.WriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "invalid request body", 0)
		return
	}
	if !req.Delete && req.Payload == nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "payload is required", 0)
		return
	}

	doc, err := h.storage.WriteDocument(r.Context(), collection, id, req.Payload, req.ExpectedVersion, req.Delete)
	if err != nil {
		if vc, ok := storage.AsVersionConflict(err); ok {
			h.logger.Warn("version conflict",
				"collection", collection, "id", id,
				"expected", vc.Expected, "actual", vc.Actual)
			writeError(w, http.StatusConflict, api.ErrCodeVersionConflict, "version mismatch", vc.Actual)
			return
		}
		h.logger.Error("failed to write document", "collection", collection, "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.hub.Broadcast(changeEvent(doc))

	h.logger.Info("document written",
		"collection", collection, "id", id,
		"version", doc.Version, "deleted", doc.Deleted)

	writeJSON(w, h.logger, http.StatusOK, api.WriteResponse{Version: doc.Version})
}

// changeEvent строит событие потока подписки из записанного документа
func changeEvent(doc *api.Document) api.ChangeEvent {
	event := api.ChangeEvent{
		Collection: doc.Collection,
		ID:         doc.ID,
		Payload:    doc.Payload,
		Version:    doc.Version,
		Type:       api.ChangeModified,
	}
	switch {
	case doc.Deleted:
		event.Type = api.ChangeRemoved
		event.Payload = nil
	case doc.Version == 1:
		event.Type = api.ChangeAdded
	}
	return event
}

func validateNames(collection, id string) error {
	if err := validation.ValidateCollection(collection); err != nil {
		return err
	}
	return validation.ValidateDocumentID(id)
}

// writeJSON сериализует ответ; ошибка кодирования только логируется
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError отправляет ошибку в формате api.ErrorResponse
func writeError(w http.ResponseWriter, status int, code, message string, actualVersion int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Code:          code,
		Message:       message,
		ActualVersion: actualVersion,
	})
}
