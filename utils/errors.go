package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyMissing is returned when the transcoder executable cannot
	// be found on PATH.
	ErrDependencyMissing = errors.New("required executable not found")

	// ErrUnknownBackend is returned when a backend identifier has no
	// registered chat strategy.
	ErrUnknownBackend = errors.New("unknown backend")
)

// ExtractionError reports a failed transcoder invocation together with the
// diagnostics it printed.
type ExtractionError struct {
	Step   string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("ffmpeg %s extraction failed: %v\nOutput: %s", e.Step, e.Err, e.Output)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// BackendError wraps a failed call to a transcription, chat or speech backend.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// RunError records the pipeline stage in which a run failed.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
