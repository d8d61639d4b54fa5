package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound indicates no report exists for the given run identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRunID indicates a run identifier that is unsafe to use as a path segment.
	ErrInvalidRunID = errors.New("invalid run ID")
)

// RunError wraps run storage errors with additional context.
type RunError struct {
	Op    string // Operation being performed (e.g., "GetReport", "SaveReport")
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

func IsInvalidRunID(err error) bool {
	return errors.Is(err, ErrInvalidRunID)
}
