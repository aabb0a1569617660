package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webpilot/internal/batch"
	"github.com/nao1215/webpilot/internal/config"
	"github.com/nao1215/webpilot/internal/history"
	"github.com/nao1215/webpilot/internal/log"
	"github.com/nao1215/webpilot/internal/pipeline"
	"github.com/nao1215/webpilot/internal/report"
	"github.com/nao1215/webpilot/internal/scenario"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario-file...]",
		Short: "Run one or more automation scenarios",
		Long: `Run executes web automation scenarios described in YAML files.

Each scenario is a pipeline of steps executed in order: request a page,
parse it, follow a link, submit a form, extract a value, assert on the
result. Every scenario gets its own session with a fresh cookie jar, so
login cookies set by one step are presented by later steps of the same run.

Scenario files are looked up as given, then with a .yml extension, then in
the webpilot XDG config directory.

Examples:
  # Run a single scenario
  webpilot run login-check.yml

  # Run several scenarios concurrently
  webpilot run login-check.yml price-watch.yml --batch 2

  # Output a Markdown report to a file
  webpilot run login-check.yml --markdown --output report.md

  # Hammer a local test server without the politeness delay
  webpilot run smoke.yml --delay 0`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRunCmd,
	}

	// Request behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().DurationP("delay", "d", config.DefaultRequestDelay,
		"Pause between consecutive HTTP requests")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64P("max-body-size", "s", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Batch execution flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of scenarios to run concurrently")

	// Report flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report instead of plain text")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking. Scenario runs
	// handle login forms and session cookies, so logs must not leak them.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScenarios(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RequestDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	if !noSave {
		cfg.SaveToDB = true
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Resolve scenario file paths; fail early on unknown names so a typo
	// doesn't surface halfway through a batch.
	cfg.Scenarios = make([]string, 0, len(args))
	for _, arg := range args {
		resolved := scenario.Find(arg)
		if resolved == "" {
			return nil, fmt.Errorf("scenario not found: %s", arg)
		}
		cfg.Scenarios = append(cfg.Scenarios, resolved)
	}

	return cfg, nil
}

// runScenarios executes all configured scenarios, sequentially or in batch.
func runScenarios(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting run",
		"scenarios", cfg.Scenarios,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open the history database if saving is enabled
	var db *history.DB
	if cfg.SaveToDB {
		var err error
		db, err = history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	if len(cfg.Scenarios) > 1 && cfg.BatchSize > 1 {
		return runBatch(ctx, cfg, db, logger)
	}
	return runSequential(ctx, cfg, db, logger)
}

// runSequential runs scenarios one at a time.
// Returns an error if any scenario failed, after running all of them.
func runSequential(ctx context.Context, cfg *config.Config, db *history.DB, logger *slog.Logger) error {
	var failed int
	for _, path := range cfg.Scenarios {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Running %s...\n", path)
		rep := runScenario(ctx, cfg, path, logger)
		fmt.Printf("Completed in %s\n\n", rep.Duration.Round(time.Millisecond))

		if !rep.Success {
			failed++
		}

		if err := outputReport(cfg, rep); err != nil {
			logger.Error("report failed", "scenario", path, "error", err)
		}
		if err := saveRunReport(ctx, db, rep, logger); err != nil {
			logger.Error("failed to save run", "scenario", path, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(cfg.Scenarios))
	}
	return nil
}

// runBatch runs scenarios concurrently using the batch runner.
func runBatch(ctx context.Context, cfg *config.Config, db *history.DB, logger *slog.Logger) error {
	fmt.Printf("Running %d scenarios (concurrency: %d)...\n\n",
		len(cfg.Scenarios), cfg.BatchSize)

	startTime := time.Now()

	runner := batch.NewRunner(
		func(ctx context.Context, path string) *report.RunReport {
			return runScenario(ctx, cfg, path, logger)
		},
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	// Stream results as scenarios finish; the mutex keeps interleaved
	// reports readable.
	var mu sync.Mutex
	var failed int
	err := runner.RunWithCallback(ctx, cfg.Scenarios, func(rep *report.RunReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Completed: %s\n", index+1, len(cfg.Scenarios), rep.Scenario)

		if !rep.Success {
			failed++
		}

		if err := outputReport(cfg, rep); err != nil {
			logger.Error("report failed", "scenario", rep.Scenario, "error", err)
		}
		if err := saveRunReport(ctx, db, rep, logger); err != nil {
			logger.Error("failed to save run", "scenario", rep.Scenario, "error", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nBatch completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(cfg.Scenarios))
	}
	return nil
}

// runScenario loads and executes one scenario file with a fresh session.
// Failures are recorded in the returned report rather than returned as an
// error, so one broken scenario doesn't hide the results of the others.
func runScenario(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) *report.RunReport {
	sc, err := scenario.Load(path)
	if err != nil {
		rep := report.NewRunReport(filepath.Base(path))
		rep.Finish(nil, err)
		return rep
	}

	rep := report.NewRunReport(sc.Name)

	steps, err := sc.Build(cfg)
	if err != nil {
		rep.Finish(nil, err)
		return rep
	}

	session := newSession(cfg, rep, logger)

	result, err := session.RunSteps(ctx, steps...)
	rep.Finish(result, err)
	return rep
}

// newSession builds the pipeline session for one scenario run. The AfterStep
// hook feeds completed steps into the report; the BeforeRequest hook applies
// the politeness delay between HTTP requests.
func newSession(cfg *config.Config, rep *report.RunReport, logger *slog.Logger) *pipeline.Session {
	opts := []pipeline.SessionOption{
		pipeline.WithLogger(logger),
		pipeline.WithTimeout(cfg.Timeout),
		pipeline.WithAfterStep(func(_ context.Context, record *pipeline.StepRecord) error {
			rep.AddStep(record.Name, record.Result)
			return nil
		}),
	}

	if cfg.RequestDelay > 0 {
		// No delay before the first request of the run.
		first := true
		opts = append(opts, pipeline.WithBeforeRequest(
			func(ctx context.Context, _ pipeline.Step, _ any) error {
				if first {
					first = false
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(cfg.RequestDelay):
					return nil
				}
			}))
	}

	return pipeline.NewSession(opts...)
}

// outputReport writes the run report in the requested format.
func outputReport(cfg *config.Config, rep *report.RunReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain extracted page content, so keep them
		// owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(rep)
		return err
	}

	_, err := report.NewSimpleWriter(output).Write(rep)
	return err
}

// saveRunReport records the run in the history database if enabled.
// If db is nil, this function is a no-op.
func saveRunReport(ctx context.Context, db *history.DB, rep *report.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Use a fresh context so a cancelled run still gets recorded.
	if errors.Is(ctx.Err(), context.Canceled) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	id, err := db.SaveRun(ctx, rep)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to history", "scenario", rep.Scenario, "id", id)
	return nil
}
