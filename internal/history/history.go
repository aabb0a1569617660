package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webpilot/internal/report"
)

// DB provides SQLite-based storage for scenario run history.
// It manages connection pooling and provides methods for saving and
// querying runs.
//
// Design decision: We use a single database file for all scenarios rather
// than one file per scenario. This keeps cross-scenario queries (e.g.,
// "last ten runs") cheap and simplifies backup.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Run is a stored scenario run.
type Run struct {
	ID           int64
	Scenario     string
	StartedAt    time.Time
	Duration     time.Duration
	Success      bool
	ErrorMessage string
	FinalResult  string
	Steps        []StepRecord
}

// StepRecord is one stored step of a run.
type StepRecord struct {
	Position int
	Name     string
	Summary  string
}

// Open opens or creates the history database at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "webpilot.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections would just
	// contend on the write lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *DB) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *DB) createTables() error {
	schema := `
	-- Runs store one row per scenario execution
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT,
		final_result TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Step records store the per-step results of each run
	CREATE TABLE IF NOT EXISTS step_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_steps_run ON step_records(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed run report and returns its ID.
func (h *DB) SaveRun(ctx context.Context, r *report.RunReport) (int64, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (scenario, started_at, duration_ms, success, error_message, final_result)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Scenario,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(),
		boolToInt(r.Success),
		r.ErrorMessage,
		r.FinalResult,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for i, step := range r.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO step_records (run_id, position, name, summary) VALUES (?, ?, ?, ?)`,
			runID, i, step.Name, step.Summary,
		); err != nil {
			return 0, fmt.Errorf("insert step record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return runID, nil
}

// GetRun retrieves a run and its step records by ID.
// Returns (nil, nil) when no run has that ID.
func (h *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	var startedAt string
	var durationMS int64
	var success int

	err := h.db.QueryRowContext(ctx,
		`SELECT id, scenario, started_at, duration_ms, success, error_message, final_result
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Scenario, &startedAt, &durationMS, &success, &run.ErrorMessage, &run.FinalResult)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Success = success != 0

	rows, err := h.db.QueryContext(ctx,
		`SELECT position, name, summary FROM step_records WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get step records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	for rows.Next() {
		var step StepRecord
		if err := rows.Scan(&step.Position, &step.Name, &step.Summary); err != nil {
			return nil, fmt.Errorf("scan step record: %w", err)
		}
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step records: %w", err)
	}

	return &run, nil
}

// ListRuns returns the most recent runs, newest first. When scenario is
// non-empty, only runs of that scenario are listed. Step records are not
// populated; use GetRun for the full record.
func (h *DB) ListRuns(ctx context.Context, scenario string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, scenario, started_at, duration_ms, success, error_message, final_result
	          FROM runs`
	args := make([]any, 0, 2)
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var run Run
		var startedAt string
		var durationMS int64
		var success int
		if err := rows.Scan(&run.ID, &run.Scenario, &startedAt, &durationMS, &success, &run.ErrorMessage, &run.FinalResult); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Success = success != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// parseTimestamp parses a stored timestamp. SQLite may return different
// formats depending on version and configuration.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
