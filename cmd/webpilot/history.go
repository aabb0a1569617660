package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webpilot/internal/config"
	"github.com/nao1215/webpilot/internal/history"
)

// NewHistoryCmd creates the history command.
// This command lists and inspects past scenario runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List or inspect past scenario runs",
		Long: `History displays scenario runs recorded by previous 'webpilot run' calls.

Without arguments it lists recent runs. With a run ID it shows the full
step-by-step record of that run.

Examples:
  # List the most recent runs
  webpilot history

  # List runs of one scenario only
  webpilot history --scenario login-check

  # Show the full record of run 12
  webpilot history 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("scenario", "s", "",
		"List runs of this scenario only")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Runs are recorded by 'run'; 'history' only ever reads, so an absent
	// database is reported instead of created.
	db, err := history.Open(config.XDGDataDir(), history.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history yet (run a scenario first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		return showRun(ctx, cmd, db, id)
	}

	scenarioFilter, err := cmd.Flags().GetString("scenario")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return listRuns(ctx, cmd, db, scenarioFilter, limit)
}

// listRuns prints a table of recent runs.
func listRuns(ctx context.Context, cmd *cobra.Command, db *history.DB, scenarioFilter string, limit int) error {
	runs, err := db.ListRuns(ctx, scenarioFilter, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-6s %-24s %-20s %-10s %s\n", "ID", "SCENARIO", "STARTED", "DURATION", "RESULT")
	for _, run := range runs {
		result := "OK"
		if !run.Success {
			result = "FAILED: " + run.ErrorMessage
		}
		fmt.Fprintf(out, "%-6d %-24s %-20s %-10s %s\n",
			run.ID,
			run.Scenario,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration.Round(time.Millisecond),
			result,
		)
	}

	return nil
}

// showRun prints the full step record of one run.
func showRun(ctx context.Context, cmd *cobra.Command, db *history.DB, id int64) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run with ID %d", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %d\n", run.ID)
	fmt.Fprintf(out, "Scenario: %s\n", run.Scenario)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration: %s\n", run.Duration.Round(time.Millisecond))
	fmt.Fprintln(out)

	for _, step := range run.Steps {
		fmt.Fprintf(out, "%3d. %-24s %s\n", step.Position+1, step.Name, step.Summary)
	}
	fmt.Fprintln(out)

	if run.Success {
		fmt.Fprintf(out, "Result: OK - %s\n", run.FinalResult)
	} else {
		fmt.Fprintf(out, "Result: FAILED - %s\n", run.ErrorMessage)
	}

	return nil
}
