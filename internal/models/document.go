package models

import "time"

// DocumentSource источник состояния закешированного документа
const (
	// SourceRemote документ целиком получен из удаленного хранилища
	SourceRemote = "remote"
	// SourceLocalOptimistic документ существует только как локальная незакоммиченная запись
	SourceLocalOptimistic = "localOptimistic"
	// SourceMerged серверный снимок с наложенной локальной дельтой
	SourceMerged = "merged"
)

// CachedDocument представляет документ в merge view.
// Поля серверного снимка, не тронутые локальной дельтой, никогда не теряются.
type CachedDocument struct {
	LastUpdated time.Time      `json:"last_updated"`
	Payload     map[string]any `json:"payload"`
	Collection  string         `json:"collection"`
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Version     int64          `json:"version"`
	Deleted     bool           `json:"deleted"`
}

// DocKey возвращает ключ документа вида "collection/id"
func (d *CachedDocument) DocKey() string {
	return d.Collection + "/" + d.ID
}

// Clone создает глубокую копию документа
func (d *CachedDocument) Clone() *CachedDocument {
	clone := *d
	clone.Payload = clonePayload(d.Payload)
	return &clone
}
