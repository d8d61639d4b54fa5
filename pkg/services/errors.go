// Package services provides the run service used by the control panel.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/clawtomations/pkg/persistence"
)

// Validation errors (400 Bad Request).
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrWorkflowOutsideDir = errors.New("workflow must be inside the workflows directory")
)

// ErrRunNotFound is returned when a run is neither tracked nor persisted.
var ErrRunNotFound = persistence.ErrRunNotFound

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should be reported as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowOutsideDir) ||
		persistence.IsInvalidRunID(err)
}

func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
