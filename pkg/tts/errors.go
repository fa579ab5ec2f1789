package tts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoBinary is returned when the synthesizer executable is missing.
	ErrNoBinary = errors.New("tts: synthesizer binary required")

	// ErrNoVoiceModel is returned when the voice model path is missing.
	ErrNoVoiceModel = errors.New("tts: voice model required")

	// ErrEmptyText is returned when nothing is left to speak after cleaning.
	ErrEmptyText = errors.New("tts: empty text")

	// ErrNoAudio is returned when the synthesizer exits without producing audio.
	ErrNoAudio = errors.New("tts: synthesizer produced no audio")

	// ErrClosed is returned when a closed provider is used.
	ErrClosed = errors.New("tts: provider closed")
)

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Provider, e.Err)
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
