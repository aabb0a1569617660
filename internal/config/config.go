package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for politeness toward small websites and for
// predictable behavior on slow or flaky connections.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds is generous for
	// simple websites while still failing fast enough for interactive use.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestDelay is the pause between consecutive HTTP requests in
	// one run. Automated form submission and link following can hammer a
	// small site; a short default delay keeps runs polite. Can be lowered
	// to zero via the --delay CLI flag for local testing.
	DefaultRequestDelay = 500 * time.Millisecond

	// DefaultBatchSize of 5 concurrent scenario runs balances throughput
	// with resource usage. Each run holds its own HTTP client and cookie
	// jar; higher values mainly risk overwhelming the target sites.
	DefaultBatchSize = 5

	// DefaultUserAgent identifies webpilot in HTTP requests. A descriptive
	// User-Agent lets site operators identify automation traffic in logs.
	DefaultUserAgent = "webpilot/1.0 (+https://github.com/nao1215/webpilot)"

	// DefaultMaxBodySize limits the response body size to read. 5MB is
	// sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "webpilot"
)

// Config holds all configuration options for webpilot.
// This struct is populated from CLI flags and passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., HTTPConfig, ReportConfig) for simplicity. The number of options is
// manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Timeout is the timeout for each HTTP request. This applies to
	// individual requests, not the overall run duration.
	Timeout time.Duration

	// RequestDelay is the pause between consecutive HTTP requests.
	// This is a politeness setting; zero disables the pause.
	RequestDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent runs when executing multiple
	// scenario files. Each run gets its own session and cookie jar.
	BatchSize int

	// Scenarios is the list of scenario file paths to run.
	// Must contain at least one entry.
	Scenarios []string

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite run history.
	// When empty, runs are not persisted.
	DBDir string

	// SaveToDB indicates whether to save run results to the history
	// database. Automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on zero
// values because many defaults are non-zero (e.g., timeout, user agent).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		RequestDelay: DefaultRequestDelay,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		BatchSize:    DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for webpilot.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webpilot
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webpilot.
// On Linux: ~/.config/webpilot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Scenarios) == 0 {
		return ErrNoScenario
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
