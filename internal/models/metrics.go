package models

import "time"

// ErrorRecord одна запись в буфере последних ошибок синхронизации
type ErrorRecord struct {
	Time       time.Time `json:"time"`
	Collection string    `json:"collection,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	Op         string    `json:"op,omitempty"`
	Message    string    `json:"message"`
}

// SyncMetrics снимок метрик движка синхронизации.
// Возвращается по значению: читатели не видят последующих изменений.
type SyncMetrics struct {
	LastSyncTime      time.Time     `json:"last_sync_time"`
	RecentErrors      []ErrorRecord `json:"recent_errors"`
	ListenersActive   int           `json:"listeners_active"`
	UpdatesReceived   int           `json:"updates_received"`
	SyncQueueSize     int           `json:"sync_queue_size"`
	ConflictsPending  int           `json:"conflicts_pending"`
	ConflictsResolved int           `json:"conflicts_resolved"`
}
