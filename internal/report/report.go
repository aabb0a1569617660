package report

import (
	"fmt"
	"time"

	"github.com/nao1215/webpilot/internal/steps"
)

// RunReport is the record of one scenario run.
// It is assembled by the CLI as the pipeline executes (via the session's
// AfterStep hook) and rendered by the writers in this package.
type RunReport struct {
	// Scenario is the scenario name.
	Scenario string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the total wall-clock duration of the run.
	Duration time.Duration

	// Steps lists the steps that completed, in execution order. Steps
	// spliced into the run by link/form navigation appear here too.
	Steps []StepResult

	// Success reports whether the run completed without error.
	Success bool

	// ErrorMessage holds the failure text when Success is false. The
	// failing step's name is part of the message.
	ErrorMessage string

	// FinalResult is a short rendering of the last step's result.
	FinalResult string
}

// StepResult records one completed step.
type StepResult struct {
	// Name is the step's name.
	Name string

	// Summary is a short rendering of the step's result.
	Summary string

	// CompletedAt is when the step finished.
	CompletedAt time.Time
}

// NewRunReport creates a report for a run starting now.
func NewRunReport(scenario string) *RunReport {
	return &RunReport{
		Scenario:  scenario,
		StartedAt: time.Now(),
		Steps:     make([]StepResult, 0),
	}
}

// AddStep records a completed step.
func (r *RunReport) AddStep(name string, result any) {
	r.Steps = append(r.Steps, StepResult{
		Name:        name,
		Summary:     Summarize(result),
		CompletedAt: time.Now(),
	})
}

// Finish closes the report with the run's outcome.
func (r *RunReport) Finish(result any, err error) {
	r.Duration = time.Since(r.StartedAt)
	if err != nil {
		r.ErrorMessage = err.Error()
		return
	}
	r.Success = true
	r.FinalResult = Summarize(result)
}

// Summarize renders a step result as a short human-readable string.
// Full response bodies and document trees stay out of reports; a step's
// identity is its URL or title plus a size hint.
func Summarize(result any) string {
	switch v := result.(type) {
	case nil:
		return "(no result)"
	case *steps.Response:
		return fmt.Sprintf("HTTP %d %s (%d bytes)", v.StatusCode, v.URL, len(v.Body))
	case *steps.Document:
		return fmt.Sprintf("document %q (%d links, %d forms)", v.Title, len(v.Links), len(v.Forms))
	case string:
		if len(v) > 120 {
			return v[:117] + "..."
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
