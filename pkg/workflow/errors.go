package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrWorkflowLoad      = errors.New("workflow load failed")
	ErrMissingAuthState  = errors.New("missing auth state")
	ErrRunAborted        = errors.New("run aborted")
	ErrInvalidCapture    = errors.New("invalid capture request")
	ErrBrowserLaunch     = errors.New("browser launch failed")
	errUnsupportedFormat = errors.New("workflow document must be a mapping")
)

// WorkflowLoadError is returned when a workflow document cannot be read, parsed or validated.
type WorkflowLoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *WorkflowLoadError) Error() string {
	return fmt.Sprintf("failed to %s workflow %s: %v", e.Op, e.Path, e.Err)
}

func (e *WorkflowLoadError) Unwrap() error {
	return e.Err
}

func (e *WorkflowLoadError) Is(target error) bool {
	return target == ErrWorkflowLoad
}

// MissingAuthStateError fails a site that requires login when its session file is absent.
type MissingAuthStateError struct {
	Site string
	Path string
}

func (e *MissingAuthStateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing auth state for site %s: no authState configured", e.Site)
	}

	return fmt.Sprintf("missing auth state for site %s (%s)", e.Site, e.Path)
}

func (e *MissingAuthStateError) Is(target error) bool {
	return target == ErrMissingAuthState
}

// RunAbortedError is returned by RunWorkflow when a failed site stopped the run.
// Artifacts for the sites that ran are written before it is returned.
type RunAbortedError struct {
	RunID string
	Site  string
	Err   error
}

func (e *RunAbortedError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("run %s aborted: %v", e.RunID, e.Err)
	}

	return fmt.Sprintf("run %s aborted at site %s: %v", e.RunID, e.Site, e.Err)
}

func (e *RunAbortedError) Unwrap() error {
	return e.Err
}

func (e *RunAbortedError) Is(target error) bool {
	return target == ErrRunAborted
}

func IsWorkflowLoad(err error) bool {
	return errors.Is(err, ErrWorkflowLoad)
}

func IsMissingAuthState(err error) bool {
	return errors.Is(err, ErrMissingAuthState)
}

func IsRunAborted(err error) bool {
	return errors.Is(err, ErrRunAborted)
}
