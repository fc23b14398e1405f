package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
)

// RunSync выполняет полный drain проход синхронно
func RunSync(ctx context.Context, eng *engine.Engine) error {
	before := eng.Metrics()
	fmt.Printf("Pushing %d pending action(s)...\n", before.SyncQueueSize)

	if err := eng.ForceSyncAll(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	after := eng.Metrics()
	fmt.Printf("Done. Queue: %d, unresolved conflicts: %d\n",
		after.SyncQueueSize, after.ConflictsPending)

	if after.ConflictsPending > 0 {
		fmt.Println("Run 'caresync conflicts' to inspect them.")
	}
	return nil
}
