package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/iudanet/caresync/internal/models"
)

func PrintUsage() {
	fmt.Println("CareSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  caresync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version            Show version information")
	fmt.Println("  --server URL         Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH            Path to local database (default: caresync-client.db)")
	fmt.Println("  --token TOKEN        Bearer token (or CARESYNC_TOKEN env var)")
	fmt.Println("  --strategy NAME      Default conflict strategy: server_wins, client_wins, merge")
	fmt.Println("  --debug              Enable debug logging")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  put <collection> [id] <json>      Create or update a document (queued locally)")
	fmt.Println("  get <collection> <id>             Show a document (local cache + pending edits)")
	fmt.Println("  list <collection>                 List documents of a collection")
	fmt.Println("  rm <collection> <id>              Delete a document (queued locally)")
	fmt.Println("  watch <collection>                Live-follow a collection until interrupted")
	fmt.Println("  sync                              Push the pending queue to the server now")
	fmt.Println("  status                            Show queue, conflicts and last sync time")
	fmt.Println("  conflicts                         List unresolved conflicts")
	fmt.Println("  resolve <collection> <id> <strategy>  Resolve a conflict")
	fmt.Println("  clear                             Drop local queue, conflicts and cache")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  caresync put medications med_12 '{\"dose\":\"5mg\",\"time\":\"08:00\"}'")
	fmt.Println("  caresync put appointments '{\"title\":\"cardiology\",\"at\":\"2026-09-01T10:00\"}'")
	fmt.Println("  caresync get medications med_12")
	fmt.Println("  caresync watch appointments")
	fmt.Println("  caresync sync")
	fmt.Println("  caresync resolve medications med_12 merge")
}

// parsePayload разбирает JSON аргумент команды в payload документа
func parsePayload(arg string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(arg), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return payload, nil
}

// formatPayload печатает payload с упорядоченными ключами
func formatPayload(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := json.Marshal(payload[k])
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, " ")
}

// printDocument печатает документ merge view с пометкой источника
func printDocument(doc *models.CachedDocument) {
	marker := ""
	switch doc.Source {
	case models.SourceLocalOptimistic:
		marker = " (local, not synced)"
	case models.SourceMerged:
		marker = " (local edits pending)"
	}

	fmt.Printf("%s/%s v%d%s\n", doc.Collection, doc.ID, doc.Version, marker)
	fmt.Printf("  %s\n", formatPayload(doc.Payload))
}
