package cli

import (
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
)

// RunStatus печатает состояние движка синхронизации
func RunStatus(eng *engine.Engine) error {
	m := eng.Metrics()

	network := "offline"
	if eng.Online() {
		network = "online"
	}

	fmt.Println("=== CareSync Status ===")
	fmt.Printf("Network:             %s\n", network)
	fmt.Printf("Pending actions:     %d\n", m.SyncQueueSize)
	fmt.Printf("Unresolved conflicts: %d\n", m.ConflictsPending)
	fmt.Printf("Resolved conflicts:  %d\n", m.ConflictsResolved)
	fmt.Printf("Active listeners:    %d\n", m.ListenersActive)
	fmt.Printf("Updates received:    %d\n", m.UpdatesReceived)

	if m.LastSyncTime.IsZero() {
		fmt.Println("Last sync:           never")
	} else {
		fmt.Printf("Last sync:           %s\n", m.LastSyncTime.Format("2006-01-02 15:04:05"))
	}

	if len(m.RecentErrors) > 0 {
		fmt.Printf("\nRecent errors (%d):\n", len(m.RecentErrors))
		for _, e := range m.RecentErrors {
			fmt.Printf("  %s %s/%s: %s\n",
				e.Time.Format("15:04:05"), e.Collection, e.DocumentID, e.Message)
		}
	}
	return nil
}
