// Package report renders the outcome of a scenario run — which steps ran,
// how long they took, what the final result was — as GitHub-flavored
// Markdown or human-readable text for terminal display.
package report
