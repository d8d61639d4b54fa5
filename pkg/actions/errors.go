package actions

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrStepExecution     = errors.New("step execution failed")
	ErrInvalidStep       = errors.New("invalid step")
)

// UnsupportedActionError names a step action no factory is registered for.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	if e.Action == "" {
		return "unsupported action: step has no action"
	}

	return "unsupported action: " + e.Action
}

func (e *UnsupportedActionError) Is(target error) bool {
	return target == ErrUnsupportedAction
}

// InvalidStepError reports a step field that is missing or malformed.
type InvalidStepError struct {
	Action string
	Field  string
	Reason string
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("invalid %s step: %s %s", e.Action, e.Field, e.Reason)
}

func (e *InvalidStepError) Is(target error) bool {
	return target == ErrInvalidStep
}

// StepExecutionError wraps a browser failure with the step that caused it.
type StepExecutionError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Action, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

func (e *StepExecutionError) Is(target error) bool {
	return target == ErrStepExecution
}

func IsUnsupportedAction(err error) bool {
	return errors.Is(err, ErrUnsupportedAction)
}

func IsStepExecution(err error) bool {
	return errors.Is(err, ErrStepExecution)
}

func IsInvalidStep(err error) bool {
	return errors.Is(err, ErrInvalidStep)
}
