package pipeline

import (
	"context"
)

// RunSteps executes the given steps strictly in order and returns the final
// result: the result of the last step, transitively following any steps
// spliced into the run via Continue. An empty step list yields (nil, nil).
//
// The record handed to each step as "previous" is the fully completed record
// of the step before it; the first step receives an empty record. A step
// spliced in by Continue instead sees the record of the step that produced
// it, not the outer pipeline's prior record.
//
// On the first failure — from a hook, configure, or execute, at any splice
// depth — RunSteps stops, skips AfterStep for the failing step, never starts
// the remaining steps, and returns a single error annotated with the failing
// step's name.
//
// Design decision: We check ctx.Done() before each step rather than during,
// because steps handle their own timeouts through the session's HTTP client.
// This allows graceful stops between steps while respecting cancellation.
func (s *Session) RunSteps(ctx context.Context, steps ...Step) (any, error) {
	prev := &StepRecord{}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			s.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return nil, ctx.Err()
		default:
		}

		record, err := s.runStep(ctx, step, prev)
		if err != nil {
			return nil, err
		}
		prev = record
	}

	return prev.Result, nil
}

// runStep drives a single step through its full lifecycle and returns its
// completed record. It recurses when the step's outcome splices another step
// into the run; the outer record then adopts the spliced chain's result.
// Errors returned from runStep are always already annotated with the name of
// the step they surfaced from.
func (s *Session) runStep(ctx context.Context, step Step, prev *StepRecord) (*StepRecord, error) {
	record := &StepRecord{Name: step.Name()}
	s.LastStep = record

	s.logger.Info("executing step", "step", step.Name())

	if s.BeforeStep != nil {
		if err := s.BeforeStep(ctx, record); err != nil {
			return nil, annotate(step.Name(), err)
		}
	}

	outcome, err := Run(ctx, s, step, prev)
	if err != nil {
		s.logger.Error("step failed",
			"step", step.Name(),
			"error", err,
		)
		return nil, annotate(step.Name(), err)
	}

	if next, ok := outcome.Next(); ok {
		// The step produced another step: run it in place of this one,
		// before the pipeline advances. The spliced step sees this step's
		// record as its previous; failures keep the spliced step's name.
		s.logger.Debug("step produced a step",
			"step", step.Name(),
			"next", next.Name(),
		)

		inlined, err := s.runStep(ctx, next, record)
		if err != nil {
			return nil, err
		}
		record.Result = inlined.Result
	} else {
		record.Result = outcome.Value()
	}

	// The record is complete; restore it as LastStep so hooks and the next
	// step observe the outermost record of a spliced chain.
	s.LastStep = record

	if s.AfterStep != nil {
		if err := s.AfterStep(ctx, record); err != nil {
			return nil, annotate(step.Name(), err)
		}
	}

	s.logger.Debug("step completed", "step", step.Name())

	return record, nil
}
