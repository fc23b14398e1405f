package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
	"github.com/iudanet/caresync/internal/models"
)

// RunConflicts печатает неразрешенные конфликты версий
func RunConflicts(ctx context.Context, eng *engine.Engine) error {
	conflicts, err := eng.Conflicts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		fmt.Println("No unresolved conflicts.")
		return nil
	}

	fmt.Printf("%d unresolved conflict(s):\n\n", len(conflicts))
	for _, rec := range conflicts {
		fmt.Printf("%s/%s (expected v%d, server at v%d)\n",
			rec.Collection, rec.DocumentID, rec.ExpectedVersion, rec.ActualVersion)
		fmt.Printf("  local:  %s\n", formatPayload(rec.LocalPayload))
		fmt.Printf("  remote: %s\n", formatPayload(rec.RemotePayload))
		if rec.Escalated {
			fmt.Println("  merge escalated: pick server_wins or client_wins")
		}
		fmt.Println()
	}

	fmt.Println("Resolve with: caresync resolve <collection> <id> <server_wins|client_wins|merge>")
	return nil
}

// RunResolve применяет стратегию к конфликту документа
func RunResolve(ctx context.Context, args []string, eng *engine.Engine) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: caresync resolve <collection> <id> <server_wins|client_wins|merge>")
	}

	strategy := models.ResolutionStrategy(args[2])
	if err := eng.ResolveConflict(ctx, args[0], args[1], strategy); err != nil {
		return err
	}

	fmt.Printf("Conflict on %s/%s resolved with %s\n", args[0], args[1], strategy)
	return nil
}

// RunClear удаляет локальную очередь, конфликты и кеш
func RunClear(ctx context.Context, eng *engine.Engine) error {
	if err := eng.ClearOfflineData(ctx); err != nil {
		return fmt.Errorf("failed to clear offline data: %w", err)
	}
	fmt.Println("Local queue, conflicts and cache cleared. Server data is untouched.")
	return nil
}
