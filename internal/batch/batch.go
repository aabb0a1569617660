package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webpilot/internal/report"
)

// RunFunc executes a single scenario identified by path and returns its
// report. Implementations must be safe for concurrent use; each call runs
// in its own goroutine with its own session.
type RunFunc func(ctx context.Context, path string) *report.RunReport

// Runner handles concurrent execution of multiple scenarios.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate batch Runner rather than adding batch
// functionality to the pipeline session because:
// 1. It keeps the session focused on single-run execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type Runner struct {
	// run executes one scenario. A fresh session per call keeps cookies
	// and hook state from leaking between scenarios.
	run RunFunc

	// concurrency is the maximum number of scenarios running at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed run reports, indexed by scenario position.
	// Access is synchronized via mutex.
	results []*report.RunReport
	mu      sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for batch processing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scenarios.
// Default is 5 if not specified.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a new batch Runner around the given RunFunc.
func NewRunner(run RunFunc, opts ...Option) *Runner {
	r := &Runner{
		run:         run,
		concurrency: 5,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Run executes all scenarios concurrently and returns their reports in
// input order. It respects the configured concurrency limit and context
// cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each scenario gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// A failed scenario does not abort the batch; its failure is recorded in
// its report. The error return indicates cancellation only.
func (r *Runner) Run(ctx context.Context, paths []string) ([]*report.RunReport, error) {
	r.logger.Info("starting batch run",
		"total_scenarios", len(paths),
		"concurrency", r.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	r.results = make([]*report.RunReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			r.logger.Info("running scenario",
				"scenario", path,
				"index", i+1,
				"total", len(paths),
			)

			rep := r.run(ctx, path)

			r.mu.Lock()
			r.results[i] = rep
			r.mu.Unlock()

			if !rep.Success {
				r.logger.Warn("scenario failed",
					"scenario", path,
					"error", rep.ErrorMessage,
				)
				// The failure is recorded in the report; keep the
				// remaining scenarios running.
				return nil
			}

			r.logger.Info("scenario completed", "scenario", path)
			return nil
		})
	}

	err := g.Wait()

	r.logger.Info("batch run complete",
		"total_scenarios", len(paths),
		"elapsed", time.Since(startTime),
	)

	return r.results, err
}

// RunWithCallback executes all scenarios and calls a callback for each
// completed run. This is useful for streaming results as they finish.
//
// The callback receives the report and the index of the scenario in the
// original slice. The callback is called from the goroutine that completed
// the run, so it should be thread-safe if it accesses shared state.
func (r *Runner) RunWithCallback(
	ctx context.Context,
	paths []string,
	callback func(rep *report.RunReport, index int),
) error {
	r.logger.Info("starting batch run with callback",
		"total_scenarios", len(paths),
		"concurrency", r.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(r.run(ctx, path), i)
			return nil
		})
	}

	return g.Wait()
}
