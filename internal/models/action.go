package models

import "time"

// OperationType тип операции в локальном журнале мутаций
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ActionStatus статусы жизненного цикла отложенной операции
const (
	StatusPending  = "pending"  // ожидает синхронизации
	StatusSyncing  = "syncing"  // взята воркером, запись в процессе
	StatusSynced   = "synced"   // подтверждена удаленным хранилищем
	StatusFailed   = "failed"   // терминальная ошибка, повторы исчерпаны
	StatusConflict = "conflict" // ожидает разрешения конфликта версий
)

// OfflineAction представляет одну отложенную запись клиента.
// Действия для одного документа применяются строго в порядке enqueue;
// между документами порядок не гарантируется.
type OfflineAction struct {
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Payload         map[string]any `json:"payload"`
	ID              string         `json:"id"`         // UUID действия
	Op              string         `json:"op"`         // create | update | delete
	Collection      string         `json:"collection"` // имя коллекции
	DocumentID      string         `json:"document_id"`
	Status          string         `json:"status"`
	LastError       string         `json:"last_error,omitempty"`
	Seq             uint64         `json:"seq"`              // монотонный номер в журнале
	ExpectedVersion int64          `json:"expected_version"` // версия документа на момент enqueue
	AttemptCount    int            `json:"attempt_count"`
}

// DocKey возвращает ключ документа вида "collection/id".
// Используется для сериализации действий по документу.
func (a *OfflineAction) DocKey() string {
	return a.Collection + "/" + a.DocumentID
}

// Clone создает глубокую копию действия
func (a *OfflineAction) Clone() *OfflineAction {
	clone := *a
	clone.Payload = clonePayload(a.Payload)
	return &clone
}

// clonePayload копирует payload на один уровень вглубь для map и slice значений.
// Этого достаточно: payload приходит из json.Unmarshal и не разделяет вложенные
// структуры с другими записями.
func clonePayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = clonePayload(tv)
		case []any:
			vs := make([]any, len(tv))
			copy(vs, tv)
			out[k] = vs
		default:
			out[k] = v
		}
	}
	return out
}
