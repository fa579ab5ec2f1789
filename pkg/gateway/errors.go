package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoBaseURL is returned when the gateway URL is missing.
	ErrNoBaseURL = errors.New("gateway: base URL required")

	// ErrNoModel is returned when the model name is missing.
	ErrNoModel = errors.New("gateway: model required")

	// ErrCircuitOpen is returned while the breaker rejects calls after
	// repeated gateway failures.
	ErrCircuitOpen = errors.New("gateway: circuit open")

	// ErrPullIncomplete is returned when a pull stream ends before the
	// gateway reports success.
	ErrPullIncomplete = errors.New("gateway: pull stream ended before success")
)

// APIError is returned when the gateway answered with a non-success status.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error text from the gateway, or the raw body.
	Message string

	// Endpoint is the API path that failed, e.g. "/api/generate".
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsNotFound returns true if the model or endpoint does not exist (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.IsServerError()
}

// ConnectivityError is returned when the gateway could not be reached:
// refused connections, DNS failures, timeouts, or an open circuit.
type ConnectivityError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("gateway: cannot reach %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsAPIError reports whether err is an APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}
