package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Hook is a lifecycle callback invoked around each step with the step's
// current record. Hooks may block (e.g., to persist the record); the runner
// waits for them before proceeding. A hook error fails the surrounding step.
type Hook func(ctx context.Context, record *StepRecord) error

// RequestHook is invoked by HTTP-performing steps immediately before a
// request is issued, with the step and its resolved configuration. It is a
// convention observed by step implementations, not by the engine itself.
type RequestHook func(ctx context.Context, step Step, config any) error

// Session is the shared context for one pipeline run (or several, at the
// caller's discretion). It carries persistent state across steps — most
// importantly the cookie jar inside the HTTP client — plus optional
// lifecycle hooks and a pointer to the most recently started step's record.
//
// Design decision: The session is threaded explicitly through every step
// call rather than held in package state. All mutation happens from the
// single goroutine driving a run, so no locking is needed as long as
// concurrent runs use separate sessions; callers sharing a session across
// runs own any required serialization.
type Session struct {
	// Client issues HTTP requests for steps that perform them. It carries
	// the cookie jar, so login cookies set by one step are presented by
	// later ones. Synthesized with a publicsuffix-aware jar if not supplied.
	Client *http.Client

	// BeforeStep, if set, runs immediately before each step configures.
	BeforeStep Hook

	// AfterStep, if set, runs immediately after each step executes
	// successfully, with the record's Result populated.
	AfterStep Hook

	// BeforeRequest, if set, is called by HTTP-performing steps before each
	// request, for observability.
	BeforeRequest RequestHook

	// LastStep points to the record of the most recently started step.
	// Readable at any time; its Result appears once the step completes.
	LastStep *StepRecord

	// Values holds arbitrary caller-supplied extension state shared by the
	// caller's own steps. The engine never reads it.
	Values map[string]any

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClient sets the HTTP client used by request-performing steps.
// The client should carry a cookie jar if cookie persistence is wanted.
func WithClient(client *http.Client) SessionOption {
	return func(s *Session) {
		s.Client = client
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
// Ignored when WithClient supplies a custom client.
func WithTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if s.Client != nil {
			s.Client.Timeout = timeout
		}
	}
}

// WithBeforeStep sets the hook invoked before each step configures.
func WithBeforeStep(hook Hook) SessionOption {
	return func(s *Session) {
		s.BeforeStep = hook
	}
}

// WithAfterStep sets the hook invoked after each step completes.
func WithAfterStep(hook Hook) SessionOption {
	return func(s *Session) {
		s.AfterStep = hook
	}
}

// WithBeforeRequest sets the hook HTTP-performing steps invoke before each
// request.
func WithBeforeRequest(hook RequestHook) SessionOption {
	return func(s *Session) {
		s.BeforeRequest = hook
	}
}

// WithLogger sets a custom logger for the session.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithValue stores a caller extension value on the session.
func WithValue(key string, value any) SessionOption {
	return func(s *Session) {
		s.Values[key] = value
	}
}

// NewSession creates a Session with the given options.
// Unless a client is supplied, a default one is created with a
// publicsuffix-aware cookie jar and a bounded redirect policy.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		Client: defaultClient(),
		Values: make(map[string]any),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// defaultClient builds the HTTP client used when the caller supplies none.
func defaultClient() *http.Client {
	// The public suffix list prevents a cookie set for "co.uk"-style
	// registrable-domain suffixes from leaking across unrelated sites.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Jar:     jar,
		Timeout: 30 * time.Second,
		// Limit redirects to prevent loops
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
