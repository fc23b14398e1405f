package models

import "time"

// ResolutionStrategy стратегия разрешения конфликта версий
type ResolutionStrategy string

const (
	// StrategyServerWins отбрасывает локальный payload и принимает серверное состояние
	StrategyServerWins ResolutionStrategy = "server_wins"
	// StrategyClientWins форсирует локальный payload поверх текущей серверной версии
	StrategyClientWins ResolutionStrategy = "client_wins"
	// StrategyMerge объединяет поля: локальные поля побеждают, остальные берутся с сервера
	StrategyMerge ResolutionStrategy = "merge"
)

// Valid проверяет, что стратегия известна
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case StrategyServerWins, StrategyClientWins, StrategyMerge:
		return true
	}
	return false
}

// ConflictRecord фиксирует расхождение ожидаемой и фактической версии документа.
// Неразрешенный конфликт блокирует дальнейшую выкачку очереди этого документа.
type ConflictRecord struct {
	DetectedAt      time.Time          `json:"detected_at"`
	ResolvedAt      *time.Time         `json:"resolved_at,omitempty"`
	LocalPayload    map[string]any     `json:"local_payload"`
	RemotePayload   map[string]any     `json:"remote_payload"`
	Collection      string             `json:"collection"`
	DocumentID      string             `json:"document_id"`
	ActionID        string             `json:"action_id"` // действие, вызвавшее конфликт
	Strategy        ResolutionStrategy `json:"strategy,omitempty"`
	ExpectedVersion int64              `json:"expected_version"`
	ActualVersion   int64              `json:"actual_version"`
	Escalated       bool               `json:"escalated"` // merge не смог объединить поля автоматически
}

// DocKey возвращает ключ документа вида "collection/id"
func (c *ConflictRecord) DocKey() string {
	return c.Collection + "/" + c.DocumentID
}

// Resolved сообщает, был ли конфликт уже разрешен
func (c *ConflictRecord) Resolved() bool {
	return c.ResolvedAt != nil
}
