package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
)

// RunList печатает все видимые документы коллекции
func RunList(ctx context.Context, args []string, eng *engine.Engine) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: caresync list <collection>")
	}
	collection := args[0]

	docs, err := eng.ReadCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}

	if len(docs) == 0 {
		fmt.Printf("Collection %q is empty.\n", collection)
		return nil
	}

	fmt.Printf("%d document(s) in %q:\n", len(docs), collection)
	for _, doc := range docs {
		printDocument(doc)
	}
	return nil
}
