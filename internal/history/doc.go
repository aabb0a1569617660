// Package history provides SQLite-based persistence of scenario runs.
// Each run is stored with its per-step records, so past automation results
// can be listed and compared long after the terminal output is gone.
package history
