package stt

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoBinary is returned when the whisper executable is not configured.
	ErrNoBinary = errors.New("stt: engine binary required")

	// ErrNoModel is returned when the recognition model is missing.
	ErrNoModel = errors.New("stt: model required")

	// ErrNoBaseURL is returned when the remote endpoint is missing.
	ErrNoBaseURL = errors.New("stt: base URL required")

	// ErrNoOutput is returned when the engine exits cleanly but leaves no transcript.
	ErrNoOutput = errors.New("stt: engine produced no transcript")
)

// ProviderError wraps an engine failure with the engine's name.
type ProviderError struct {
	Provider string
	Err      error

	// Unreachable is set when a remote engine could not be contacted.
	Unreachable bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("stt [%s]: %v", e.Provider, e.Err)
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
