package biometric

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrMissingImage is returned when a request field is empty.
	ErrMissingImage = errors.New("biometric: image required")

	// ErrMalformedImage is returned when a payload is not valid base64.
	ErrMalformedImage = errors.New("biometric: malformed base64 image")

	// ErrUndecodableImage is returned when the bytes are not a supported image.
	ErrUndecodableImage = errors.New("biometric: unsupported or corrupt image")

	// ErrNoFace is returned when detection is enforced and no face is found.
	ErrNoFace = errors.New("biometric: no face detected")

	// ErrNoModel is returned when a model path is missing.
	ErrNoModel = errors.New("biometric: model path required")

	// ErrUnknownMetric is returned for an unsupported distance metric.
	ErrUnknownMetric = errors.New("biometric: unknown distance metric")
)

// ValidationError reports a request the client must fix.
type ValidationError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("biometric: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a matcher failure.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("biometric [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
