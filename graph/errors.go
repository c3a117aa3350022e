package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited marks errors caused by upstream rate limiting or quota
// exhaustion. Errors wrapping it are safe to retry after a backoff.
var ErrRateLimited = errors.New("graph loader rate limited")

// APIError is a structured error returned by a graph loader service call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph loader returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets rate-limit responses match ErrRateLimited via errors.Is.
func (e *APIError) Unwrap() error {
	if e.Retryable() {
		return ErrRateLimited
	}
	return nil
}

// Retryable reports whether the status indicates a transient condition.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// IsRateLimit reports whether err is a structured rate-limit error from a
// graph loader client. Textual classification of unknown error shapes is
// the retry policy's job, not this package's.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
