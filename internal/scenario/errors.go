package scenario

import "errors"

// Scenario loading and validation errors.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() while the call sites add dynamic detail (which step, which
// file) with fmt.Errorf and %w.
var (
	// ErrScenarioNotFound is returned when the scenario file does not exist.
	ErrScenarioNotFound = errors.New("scenario file not found")

	// ErrNoSteps is returned when a scenario declares no steps.
	ErrNoSteps = errors.New("scenario has no steps")

	// ErrStepName is returned when a step has no name. Names are required
	// because failures are attributed to them.
	ErrStepName = errors.New("step has no name")

	// ErrUnknownStepType is returned for a step type Build does not know.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrMissingParameter is returned when a step spec lacks a parameter
	// its type requires (e.g., a request without a URL).
	ErrMissingParameter = errors.New("step is missing a required parameter")
)
