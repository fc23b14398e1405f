package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/caresync/internal/server/storage"
	"github.com/iudanet/caresync/internal/validation"
	"github.com/iudanet/caresync/pkg/api"
)

// subscriberBuffer емкость канала событий одного подписчика;
// переполнение означает безнадежно медленного клиента — его отключаем
const subscriberBuffer = 64

// writeTimeout ограничивает запись одного сообщения в websocket
const writeTimeout = 10 * time.Second

// Hub разводит изменения документов по подписчикам коллекций
type Hub struct {
	logger *slog.Logger
	subs   map[string]map[*subscriber]struct{}
	mu     sync.Mutex
}

type subscriber struct {
	events chan api.ChangeEvent
	closed bool
}

// NewHub создает пустой hub подписок
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Broadcast рассылает событие всем подписчикам коллекции.
// Подписчик с переполненным буфером отключается.
func (h *Hub) Broadcast(event api.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[event.Collection] {
		select {
		case sub.events <- event:
		default:
			h.logger.Warn("dropping slow subscriber", "collection", event.Collection)
			h.dropLocked(event.Collection, sub)
		}
	}
}

// register добавляет подписчика коллекции
func (h *Hub) register(collection string) *subscriber {
	sub := &subscriber{events: make(chan api.ChangeEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*subscriber]struct{})
	}
	h.subs[collection][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// unregister убирает подписчика и закрывает его канал
func (h *Hub) unregister(collection string, sub *subscriber) {
	h.mu.Lock()
	h.dropLocked(collection, sub)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(collection string, sub *subscriber) {
	set := h.subs[collection]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, collection)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.events)
	}
}

// SubscribeHandler обслуживает websocket поток изменений коллекции
type SubscribeHandler struct {
	logger   *slog.Logger
	storage  storage.DocumentStorage
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(logger *slog.Logger, docStorage storage.DocumentStorage, hub *Hub) *SubscribeHandler {
	return &SubscribeHandler{
		logger:  logger,
		storage: docStorage,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe обрабатывает GET /api/v1/subscribe?collection=X
// Сначала клиент получает полный снимок коллекции (type=added),
// затем live изменения до разрыва соединения.
func (s *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if err := validation.ValidateCollection(collection); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, err.Error(), 0)
		return
	}

	// Регистрация строго до снимка: запись, пришедшая пока снимок
	// читается из базы или идет upgrade, ждет в буфере подписчика и
	// уходит следом за снимком. Возможный дубль (документ и в снимке,
	// и в событии) безопасен — версии выданы хранилищем, клиент
	// применяет полное состояние документа.
	sub := s.hub.register(collection)
	defer s.hub.unregister(collection, sub)

	docs, err := s.storage.ListCollection(r.Context(), collection)
	if err != nil {
		s.logger.Error("failed to list collection", "collection", collection, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.logger.Info("subscriber connected", "collection", collection, "snapshot_size", len(docs))

	for _, doc := range docs {
		event := api.ChangeEvent{
			Collection: doc.Collection,
			ID:         doc.ID,
			Payload:    doc.Payload,
			Version:    doc.Version,
			Type:       api.ChangeAdded,
		}
		if err := s.writeEvent(conn, event); err != nil {
			_ = conn.Close()
			return
		}
	}

	// Читатель нужен только чтобы заметить закрытие соединения клиентом
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			_ = conn.Close()
			return
		case event, ok := <-sub.events:
			if !ok {
				_ = conn.Close()
				return
			}
			if err := s.writeEvent(conn, event); err != nil {
				s.logger.Debug("subscriber write failed", "collection", collection, "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *SubscribeHandler) writeEvent(conn *websocket.Conn, event api.ChangeEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
