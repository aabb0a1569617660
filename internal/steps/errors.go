package steps

import "errors"

// Step execution errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances at each call site. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Dynamic detail (which link, which form) is added
// at the call site with fmt.Errorf and %w.
var (
	// ErrInvalidConfig is returned when a step's resolved configuration has
	// a type its execution logic cannot consume. This usually means a
	// resolver returned the wrong type or an identity-mode step follows a
	// step producing an incompatible result.
	ErrInvalidConfig = errors.New("step configuration has an unexpected type")

	// ErrLinkNotFound is returned when no link in the previous document
	// matches the follow-link selection.
	ErrLinkNotFound = errors.New("no link matches the selection")

	// ErrFormNotFound is returned when no form in the previous document
	// matches the submit-form selection.
	ErrFormNotFound = errors.New("no form matches the selection")

	// ErrNoMatch is returned when an extraction finds nothing: an absent
	// meta key, a pattern that matches nowhere, or an empty title.
	ErrNoMatch = errors.New("extraction matched nothing")

	// ErrAssertionFailed is returned when an assertion step's expected
	// condition was false. The wrapping error carries the explanation.
	ErrAssertionFailed = errors.New("assertion failed")
)
