package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
)

// RunDelete ставит удаление документа в локальную очередь
func RunDelete(ctx context.Context, args []string, eng *engine.Engine) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: caresync rm <collection> <id>")
	}

	if err := eng.EnqueueDelete(ctx, args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Queued delete of %s/%s\n", args[0], args[1])
	fmt.Println("Run 'caresync sync' to push pending changes.")
	return nil
}
