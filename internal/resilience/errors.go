package resilience

import (
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/rotisserie/eris"
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether err is a TransientError, a network timeout, or
// a refused or reset connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// CheckStatus turns an HTTP status into an error. 408, 429 and 5xx are
// transient; other codes >= 400 are permanent.
func CheckStatus(service string, statusCode int) error {
	if statusCode < http.StatusBadRequest {
		return nil
	}
	err := eris.Errorf("%s: unexpected status %d", service, statusCode)
	if statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError {
		return NewTransientError(err, statusCode)
	}
	return err
}
