package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/clawtomations/pkg/actions"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/google/uuid"
)

// NewRunID returns an identifier that sorts by start time and stays unique within a millisecond.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run-%d-%s", now.UnixMilli(), uuid.New().String()[:8])
}

// stepError converts a site failure into the record stored in the site's error list.
func stepError(err error) models.StepError {
	stepErr := models.StepError{
		Message: err.Error(),
		Trace:   errorTrace(err),
	}

	var (
		execErr *actions.StepExecutionError
		failure *stepFailure
	)

	switch {
	case errors.As(err, &execErr):
		stepErr.Step = execErr.Index
		stepErr.Action = execErr.Action
	case errors.As(err, &failure):
		stepErr.Step = failure.Index
		stepErr.Action = failure.Action
	}

	return stepErr
}

// stepFailure attaches the step position to errors raised before the step reached the browser,
// such as an unsupported action or an invalid field.
type stepFailure struct {
	Index  int
	Action string
	Err    error
}

func (e *stepFailure) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Action, e.Err)
}

func (e *stepFailure) Unwrap() error {
	return e.Err
}

// errorTrace lists the error chain from outermost to innermost, one per line.
func errorTrace(err error) string {
	var lines []string

	for current := err; current != nil; current = errors.Unwrap(current) {
		lines = append(lines, fmt.Sprintf("%T: %s", current, current.Error()))
	}

	return strings.Join(lines, "\n")
}
