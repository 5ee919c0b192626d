package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// HTTPError represents a non-success response from an external API.
type HTTPError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API error %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, body)
}

// ValidationError reports an external payload that does not satisfy the typed
// record it is decoded into.
type ValidationError struct {
	Service string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid payload: %s %s", e.Service, e.Field, e.Reason)
}

// IsTransient reports whether err is worth retrying:
// network failures, attempt timeouts, HTTP 429 and HTTP 5xx.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// The caller's own cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
	}
	return false
}
