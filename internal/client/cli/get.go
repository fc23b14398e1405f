package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
	"github.com/iudanet/caresync/internal/client/storage"
)

// RunGet печатает документ из merge view
func RunGet(ctx context.Context, args []string, eng *engine.Engine) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: caresync get <collection> <id>")
	}

	doc, err := eng.Read(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return fmt.Errorf("document %s/%s not found", args[0], args[1])
		}
		return err
	}

	printDocument(doc)
	return nil
}
