package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Terminal remote store errors
var (
	// ErrNotFound indicates that document doesn't exist remotely
	ErrNotFound = errors.New("document not found")

	// ErrPermissionDenied indicates a non-retryable authorization failure
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation indicates the request was rejected before being applied
	ErrValidation = errors.New("validation failed")
)

// VersionConflictError возвращается хранилищем при несовпадении expectedVersion.
// Не является пользовательской ошибкой: движок направляет ее в resolver.
type VersionConflictError struct {
	Collection string
	DocumentID string
	Expected   int64
	Actual     int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s/%s: expected %d, actual %d",
		e.Collection, e.DocumentID, e.Expected, e.Actual)
}

// AsVersionConflict извлекает VersionConflictError из цепочки ошибок
func AsVersionConflict(err error) (*VersionConflictError, bool) {
	var vc *VersionConflictError
	if errors.As(err, &vc) {
		return vc, true
	}
	return nil, false
}

// TransientError помечает ошибку транспорта как повторяемую
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient сообщает, стоит ли повторять операцию с backoff.
// Таймаут удаленного вызова трактуется как транзиентный сетевой сбой.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
