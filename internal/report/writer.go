package report

import "io"

// Writer defines the interface for report output.
// Implementations render run results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *RunReport) (int, error)
}

// baseWriter holds the output destination shared by the writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter for the given destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
