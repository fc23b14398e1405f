package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/caresync/pkg/api"
)

// defaultRequestTimeout ограничивает один удаленный вызов;
// превышение трактуется как транзиентный сбой (retry path)
const defaultRequestTimeout = 15 * time.Second

// HTTPStore реализует Store поверх HTTP JSON API + websocket потока изменений
type HTTPStore struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	token      string
}

// NewHTTPStore создает новый клиент удаленного хранилища.
// token пустой — запросы идут без Authorization заголовка.
func NewHTTPStore(baseURL, token string, logger *slog.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

// Get возвращает текущее состояние документа
func (s *HTTPStore) Get(ctx context.Context, collection, id string) (*api.Document, error) {
	var doc api.Document
	path := fmt.Sprintf("/api/v1/docs/%s/%s", collection, id)
	if err := s.doRequest(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Write применяет payload с проверкой expectedVersion
func (s *HTTPStore) Write(ctx context.Context, collection, id string, payload map[string]any, expectedVersion int64) (int64, error) {
	req := api.WriteRequest{
		Payload:         payload,
		ExpectedVersion: expectedVersion,
	}
	return s.write(ctx, collection, id, req)
}

// Delete помечает документ удаленным (tombstone) с проверкой версии
func (s *HTTPStore) Delete(ctx context.Context, collection, id string, expectedVersion int64) (int64, error) {
	req := api.WriteRequest{
		ExpectedVersion: expectedVersion,
		Delete:          true,
	}
	return s.write(ctx, collection, id, req)
}

func (s *HTTPStore) write(ctx context.Context, collection, id string, req api.WriteRequest) (int64, error) {
	var resp api.WriteResponse
	path := fmt.Sprintf("/api/v1/docs/%s/%s", collection, id)
	if err := s.doRequest(ctx, http.MethodPut, path, req, &resp); err != nil {
		// Дополняем конфликт координатами документа
		if vc, ok := AsVersionConflict(err); ok {
			vc.Collection = collection
			vc.DocumentID = id
			vc.Expected = req.ExpectedVersion
			return 0, vc
		}
		return 0, err
	}
	return resp.Version, nil
}

// Ping проверяет доступность удаленного хранилища (probe для монитора сети)
func (s *HTTPStore) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Subscribe открывает websocket поток изменений коллекции
func (s *HTTPStore) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	wsURL, err := s.subscribeURL(collection)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("subscribe %s: %w", collection, ErrPermissionDenied)
			}
		}
		return nil, &TransientError{Err: fmt.Errorf("subscribe %s: %w", collection, err)}
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan api.ChangeEvent, 64),
		done:   make(chan struct{}),
		logger: s.logger,
	}
	go sub.readLoop()

	return sub, nil
}

func (s *HTTPStore) subscribeURL(collection string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/v1/subscribe"
	u.RawQuery = url.Values{"collection": {collection}}.Encode()
	return u.String(), nil
}

// doRequest выполняет HTTP запрос и маппит статусы ответа на таксономию ошибок
func (s *HTTPStore) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL := s.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Ошибка транспорта или таймаут — retry path
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransientError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.mapError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// mapError переводит HTTP статус в ошибку таксономии движка
func (s *HTTPStore) mapError(status int, body []byte) error {
	var errResp api.ErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch {
	case status == http.StatusConflict:
		return &VersionConflictError{Actual: errResp.ActualVersion}
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, errResp.Message)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, errResp.Message)
	case status == http.StatusTooManyRequests:
		// Rate limit сервера: повторяем с backoff как обычный транзиентный сбой
		return &TransientError{Err: fmt.Errorf("rate limited: %s", errResp.Message)}
	case status >= 500:
		return &TransientError{Err: fmt.Errorf("server error (%d): %s", status, errResp.Message)}
	default:
		return fmt.Errorf("request failed with status %d: %s", status, string(body))
	}
}

// wsSubscription реализует Subscription поверх websocket соединения
type wsSubscription struct {
	conn   *websocket.Conn
	logger *slog.Logger
	events chan api.ChangeEvent
	done   chan struct{}
	err    error
	mu     sync.Mutex
	closed bool
}

// readLoop читает события из соединения и пишет их в канал подписки
func (s *wsSubscription) readLoop() {
	defer close(s.events)

	for {
		var event api.ChangeEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			select {
			case <-s.done:
				// Закрыто через Close — не ошибка
			default:
				s.mu.Lock()
				s.err = &TransientError{Err: err}
				s.mu.Unlock()
				s.logger.Debug("subscription stream closed", "error", err)
			}
			return
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

func (s *wsSubscription) Events() <-chan api.ChangeEvent {
	return s.events
}

func (s *wsSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close разрывает поток немедленно
func (s *wsSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.conn.Close()
}
