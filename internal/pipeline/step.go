package pipeline

import (
	"context"
	"fmt"
)

// Step defines the interface that all pipeline steps must implement.
// A step has a two-phase lifecycle: Configure resolves its final parameters
// (possibly from the previous step's result), then Execute performs the work
// and produces an Outcome.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state across the two phases
// 2. It provides a Name() method for logging and error attribution
// 3. New step kinds are expected to be added by consumers of this package
type Step interface {
	// Name returns the step's name, used for logging and error attribution.
	Name() string

	// Configure resolves the step's configuration before execution.
	// prev is the record of the previously completed step; for the first
	// step in a pipeline it is an empty record with no result.
	// If Configure fails, Execute is never invoked.
	Configure(ctx context.Context, session *Session, prev *StepRecord) error

	// Execute performs the step's work. It returns Done(value) on success,
	// or Continue(next) to splice another step into the run immediately.
	Execute(ctx context.Context, session *Session, prev *StepRecord) (Outcome, error)
}

// StepRecord describes a step as it is being (or has been) run.
// A record is created immediately before its step begins configuring and is
// exposed to lifecycle hooks via Session.LastStep. Result is populated only
// after the step executes successfully, including full resolution of any
// steps it produced dynamically; the record handed to the next pipeline step
// is therefore never partial or pending.
type StepRecord struct {
	// Name is the step's name.
	Name string

	// Result is the step's final result. It is nil until the step, and any
	// step it spliced into the run, completed successfully.
	Result any
}

// Outcome is the tagged result of a step's Execute phase: either a final
// value (Done) or a further step to run in place of this one (Continue).
//
// Design decision: We model "a step produced another step" as an explicit
// tag rather than type-inspecting an arbitrary return value. The runner
// loops on Continue until it reaches Done, so a chain of produced steps
// collapses into a single pipeline position.
type Outcome struct {
	value any
	next  Step
}

// Done returns an Outcome carrying the step's final result value.
func Done(value any) Outcome {
	return Outcome{value: value}
}

// Continue returns an Outcome instructing the runner to execute next
// immediately, before the pipeline advances. The spliced step's result
// becomes this step's result.
func Continue(next Step) Outcome {
	return Outcome{next: next}
}

// Value returns the final result value. It is meaningful only when Next
// reports no continuation.
func (o Outcome) Value() any {
	return o.value
}

// Next returns the step to splice into the run, if any.
func (o Outcome) Next() (Step, bool) {
	return o.next, o.next != nil
}

// Resolver computes a step's configuration from the previous step's result.
// It may block on I/O; the context carries cancellation.
type Resolver func(ctx context.Context, prev any) (any, error)

// configMode selects how a Base resolves its configuration.
type configMode int

const (
	// modeStatic: the configuration was fixed at construction.
	modeStatic configMode = iota

	// modePrevious: the configuration is the previous step's result, as-is.
	modePrevious

	// modeResolver: the configuration is computed by a Resolver.
	modeResolver
)

// Base carries the name and configuration-resolution machinery shared by all
// step types. Concrete steps embed Base and supply their own Execute.
//
// Exactly one of the three configuration modes is chosen at construction and
// is immutable thereafter:
//   - NewBase: static configuration, Configure is a no-op
//   - NewBaseFromPrevious: configuration is the previous result, unchanged
//   - NewBaseWithResolver: configuration is computed from the previous result
//
// A Base is not safe for concurrent runs of the same instance: the resolved
// configuration is written once per execution attempt.
type Base struct {
	name     string
	mode     configMode
	resolver Resolver
	config   any
}

// NewBase creates a step base with a static configuration.
// Configure is a no-op for this mode.
func NewBase(name string, config any) Base {
	return Base{
		name:   name,
		mode:   modeStatic,
		config: config,
	}
}

// NewBaseFromPrevious creates a step base whose configuration is the
// previous step's result, passed through unchanged on every run.
func NewBaseFromPrevious(name string) Base {
	return Base{
		name: name,
		mode: modePrevious,
	}
}

// NewBaseWithResolver creates a step base whose configuration is computed by
// resolve from the previous step's result. A resolver that fails aborts the
// step at the configure phase, before Execute runs.
func NewBaseWithResolver(name string, resolve Resolver) Base {
	return Base{
		name:     name,
		mode:     modeResolver,
		resolver: resolve,
	}
}

// Name returns the step name.
func (b *Base) Name() string {
	return b.name
}

// Config returns the resolved configuration. It is valid after Configure
// returned nil; for static-mode steps it is valid from construction.
func (b *Base) Config() any {
	return b.config
}

// Configure resolves the step's configuration according to its mode.
func (b *Base) Configure(ctx context.Context, _ *Session, prev *StepRecord) error {
	switch b.mode {
	case modeStatic:
		return nil
	case modePrevious:
		b.config = prev.Result
		return nil
	case modeResolver:
		config, err := b.resolver(ctx, prev.Result)
		if err != nil {
			return fmt.Errorf("resolve configuration: %w", err)
		}
		b.config = config
		return nil
	default:
		return fmt.Errorf("unknown configuration mode %d", b.mode)
	}
}

// Execute fails loudly. Base has no behavior of its own; a concrete step
// type that does not override Execute is broken and must not silently no-op.
func (b *Base) Execute(_ context.Context, _ *Session, _ *StepRecord) (Outcome, error) {
	return Outcome{}, ErrNotImplemented
}

// Run drives one step through its lifecycle: Configure, then Execute.
// A failure in either phase is returned as-is and the other phase is not
// invoked. The runner is responsible for annotating the failure with the
// step's name.
func Run(ctx context.Context, session *Session, step Step, prev *StepRecord) (Outcome, error) {
	if err := step.Configure(ctx, session, prev); err != nil {
		return Outcome{}, err
	}
	return step.Execute(ctx, session, prev)
}
