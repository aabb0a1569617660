package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nao1215/webpilot/internal/history"
	"github.com/nao1215/webpilot/internal/report"
)

// setupHistoryDB creates a temp database with one recorded run.
func setupHistoryDB(t *testing.T) (*history.DB, int64) {
	t.Helper()

	db, err := history.Open(t.TempDir(), history.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rep := report.NewRunReport("login-check")
	rep.AddStep("open-login", "HTTP 200")
	rep.Finish("done", nil)

	id, err := db.SaveRun(context.Background(), rep)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	return db, id
}

// TestListRuns tests the history listing output.
func TestListRuns(t *testing.T) {
	t.Parallel()

	t.Run("lists recorded runs", func(t *testing.T) {
		t.Parallel()

		db, _ := setupHistoryDB(t)

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := listRuns(context.Background(), cmd, db, "", 20); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"ID", "login-check", "OK"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("reports empty history", func(t *testing.T) {
		t.Parallel()

		db, err := history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := listRuns(context.Background(), cmd, db, "", 20); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No runs recorded") {
			t.Errorf("expected empty-history message, got:\n%s", buf.String())
		}
	})
}

// TestShowRun tests the single-run output.
func TestShowRun(t *testing.T) {
	t.Parallel()

	t.Run("shows step records", func(t *testing.T) {
		t.Parallel()

		db, id := setupHistoryDB(t)

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := showRun(context.Background(), cmd, db, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"login-check", "open-login", "Result: OK"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("unknown id is an error", func(t *testing.T) {
		t.Parallel()

		db, _ := setupHistoryDB(t)

		cmd := NewHistoryCmd()
		if err := showRun(context.Background(), cmd, db, 9999); err == nil {
			t.Fatal("expected error for unknown run ID")
		}
	})
}
