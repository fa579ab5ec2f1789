package voice

import (
	"errors"
	"fmt"
)

// Common errors returned by the pipeline.
var (
	// ErrEmptyUpload is returned when the uploaded audio has no bytes.
	ErrEmptyUpload = errors.New("voice: empty audio upload")

	// ErrMissingStage is returned when New is missing an engine.
	ErrMissingStage = errors.New("voice: transcriber, generator and synthesizer are required")
)

// StageError reports the state in which a turn failed.
type StageError struct {
	Stage State
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("voice: %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the state err failed in, or "" if err is not a StageError.
func FailedStage(err error) State {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
