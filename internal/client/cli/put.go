package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/caresync/internal/client/engine"
	"github.com/iudanet/caresync/internal/client/storage"
)

// RunPut ставит создание или обновление документа в локальную очередь.
// Форма с двумя аргументами генерирует id на клиенте.
func RunPut(ctx context.Context, args []string, eng *engine.Engine) error {
	var collection, id, payloadArg string
	switch len(args) {
	case 2:
		collection, payloadArg = args[0], args[1]
	case 3:
		collection, id, payloadArg = args[0], args[1], args[2]
	default:
		return fmt.Errorf("usage: caresync put <collection> [id] '<json>'")
	}

	payload, err := parsePayload(payloadArg)
	if err != nil {
		return err
	}

	// Существующий документ обновляем, незнакомый создаем
	update := false
	if id != "" {
		if _, err := eng.Read(ctx, collection, id); err == nil {
			update = true
		} else if !errors.Is(err, storage.ErrDocumentNotFound) {
			return fmt.Errorf("failed to read document: %w", err)
		}
	}

	if update {
		if err := eng.EnqueueUpdate(ctx, collection, id, payload); err != nil {
			return err
		}
		fmt.Printf("Queued update of %s/%s\n", collection, id)
	} else {
		newID, err := eng.EnqueueCreate(ctx, collection, id, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Queued create of %s/%s\n", collection, newID)
	}

	fmt.Println("Run 'caresync sync' to push pending changes.")
	return nil
}
