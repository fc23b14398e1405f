package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/caresync/internal/client/engine"
	"github.com/iudanet/caresync/internal/models"
)

// RunWatch следит за коллекцией live: каждый серверный push печатает
// свежий снимок с наложенными локальными правками. Завершается по Ctrl+C.
func RunWatch(ctx context.Context, args []string, eng *engine.Engine) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: caresync watch <collection>")
	}
	collection := args[0]

	handle, err := eng.Subscribe(collection, func(docs []*models.CachedDocument) {
		fmt.Printf("--- %s @ %s (%d docs) ---\n",
			collection, time.Now().Format("15:04:05"), len(docs))
		for _, doc := range docs {
			printDocument(doc)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer eng.Unsubscribe(handle)

	fmt.Printf("Watching %q, press Ctrl+C to stop.\n", collection)
	<-ctx.Done()
	return nil
}
