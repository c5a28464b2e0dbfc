package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pagegist/internal/domain"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Error is returned when a backend answers with a non-success status, the
// transport fails, or the response body cannot be understood. Reason holds
// the backend's own message when it sent one.
type Error struct {
	Provider   domain.ProviderID
	StatusCode int
	Reason     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API error: %s", DisplayName(e.Provider), e.Reason)
}

// Retryable reports whether the failure looks transient (429 or 5xx).
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// TimeoutError is returned when a call exceeds its per-call deadline.
type TimeoutError struct {
	Provider domain.ProviderID
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s API error: request timed out after %s", DisplayName(e.Provider), e.After)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

func requestFailed(id domain.ProviderID) string {
	return DisplayName(id) + " API request failed"
}
