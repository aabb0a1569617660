package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for documentation and sharing, e.g. attaching a
// run result to an issue or CI artifact.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full run report in Markdown format.
func (w *MarkdownWriter) Write(report *RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSteps(md, report)
	w.writeOutcome(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *RunReport) {
	md.H1("webpilot Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scenario", "`" + report.Scenario + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Steps Completed", strconv.Itoa(len(report.Steps))},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on the run outcome.
func statusText(report *RunReport) string {
	if !report.Success {
		return "❌ Failed"
	}
	return "✅ Complete"
}

// writeSteps writes the step-by-step table.
func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, report *RunReport) {
	md.H2("Steps")
	md.PlainText("")

	if len(report.Steps) == 0 {
		md.PlainText("No steps completed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Steps))
	for i, step := range report.Steps {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			"`" + step.Name + "`",
			step.Summary,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Step", "Result"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeOutcome writes the final result or the failure alert.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, report *RunReport) {
	md.H2("Outcome")
	md.PlainText("")

	if !report.Success {
		md.Cautionf("Run failed: %s", report.ErrorMessage)
		md.PlainText("")
		return
	}

	md.PlainText("Final result: " + report.FinalResult)
	md.PlainText("")
}
