package pipeline

import (
	"errors"
	"fmt"
)

// Engine-level errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances at each call site. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNotImplemented is returned when Base.Execute is invoked directly.
	// Base provides configuration resolution only; concrete step types must
	// supply their own Execute. Reaching this error is a programming error
	// in the step implementation, not a runtime condition.
	ErrNotImplemented = errors.New("execute is not implemented for this step type")

	// ErrNoPreviousResult is returned by steps that require the previous
	// step's result (e.g., a step parsing a fetched response) when they run
	// first in a pipeline or after a step that produced no result.
	ErrNoPreviousResult = errors.New("step requires a previous step result")
)

// StepError annotates a failure with the name of the step it surfaced from.
// The runner wraps every failure exactly once, at the point it escapes the
// step's configure or execute phase. When a dynamically produced step fails,
// the error carries that step's name, not the name of the step that produced
// it: the most specific name wins.
type StepError struct {
	// StepName is the name of the step whose configure or execute failed.
	StepName string

	// Err is the original failure, unmodified.
	Err error
}

// Error returns the step name followed by the original message.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.StepName, e.Err)
}

// Unwrap returns the original failure so that errors.Is and errors.As see
// through the annotation.
func (e *StepError) Unwrap() error {
	return e.Err
}

// annotate wraps err with the step name unless it is already a StepError.
// An error that crossed one runner frame is never re-annotated; this keeps
// the innermost (most specific) step name on failures from inlined steps.
func annotate(name string, err error) error {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return err
	}
	return &StepError{StepName: name, Err: err}
}
