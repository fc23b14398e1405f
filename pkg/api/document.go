package api

import "time"

// Document представляет версионированный документ удаленного хранилища
type Document struct {
	UpdatedAt  time.Time      `json:"updated_at"`
	Payload    map[string]any `json:"payload"`
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Version    int64          `json:"version"`
	Deleted    bool           `json:"deleted"`
}

// WriteRequest представляет запрос на запись документа с optimistic concurrency
// ExpectedVersion = 0 означает "документ не должен существовать" (create)
type WriteRequest struct {
	Payload         map[string]any `json:"payload"`
	ExpectedVersion int64          `json:"expected_version"`
	Delete          bool           `json:"delete,omitempty"`
}

// WriteResponse представляет ответ сервера на успешную запись
type WriteResponse struct {
	Version int64 `json:"version"` // Новая версия документа, выданная хранилищем
}

// Error codes returned in ErrorResponse.Code
const (
	ErrCodeVersionConflict = "version_conflict"
	ErrCodeNotFound        = "not_found"
	ErrCodePermission      = "permission_denied"
	ErrCodeValidation      = "validation_failed"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal_error"
)

// ErrorResponse представляет ошибку от сервера
// ActualVersion заполняется только для version_conflict
type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	ActualVersion int64  `json:"actual_version,omitempty"`
}

// ChangeType тип изменения в потоке подписки
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// ChangeEvent представляет одно изменение документа в потоке подписки.
// Первый батч после подписки содержит полный снимок коллекции (type=added).
type ChangeEvent struct {
	Payload    map[string]any `json:"payload"`
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Type       ChangeType     `json:"type"`
	Version    int64          `json:"version"`
}
