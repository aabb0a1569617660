package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run report as plain text.
func (w *SimpleWriter) Write(report *RunReport) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Scenario: %s\n", report.Scenario)
	fmt.Fprintf(&b, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Duration: %s\n", report.Duration)
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for i, step := range report.Steps {
		fmt.Fprintf(&b, "%3d. %-24s %s\n", i+1, step.Name, step.Summary)
	}

	b.WriteString(strings.Repeat("-", 60) + "\n")
	if report.Success {
		fmt.Fprintf(&b, "Result: OK - %s\n", report.FinalResult)
	} else {
		fmt.Fprintf(&b, "Result: FAILED - %s\n", report.ErrorMessage)
	}

	return io.WriteString(w.output, b.String())
}
