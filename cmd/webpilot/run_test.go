package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/webpilot/internal/config"
)

// writeScenario writes a scenario YAML file into a temp directory.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}
	return path
}

// newLoginServer serves a minimal login flow for CLI-level tests.
func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Welcome</title></head>
<body>
<a href="/login">Log in</a>
</body>
</html>`)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if r.FormValue("username") == "alice" {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><head><title>Members</title></head><body>Hello alice</body></html>`)
				return
			}
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
<form name="login" action="/login" method="post">
<input type="text" name="username" value="">
<input type="password" name="password" value="">
</form>
</body>
</html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// testConfig returns a run configuration suitable for tests: no politeness
// delay, no history database.
func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.RequestDelay = 0
	cfg.SaveToDB = false
	return cfg
}

// discardLogger returns a logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestRunScenario tests scenario execution end to end.
func TestRunScenario(t *testing.T) {
	t.Parallel()

	t.Run("full login flow succeeds", func(t *testing.T) {
		t.Parallel()

		server := newLoginServer(t)
		path := writeScenario(t, "login-check.yml", fmt.Sprintf(`
name: login-check
steps:
  - name: open-home
    type: request
    url: %[1]s/
  - name: home-ok
    type: assert_status
    status: 200
  - name: parse-home
    type: parse
  - name: open-login
    type: follow_link
    text: Log in
  - name: parse-login
    type: parse
  - name: log-in
    type: submit_form
    selector: login
    fields:
      username: alice
      password: secret
  - name: parse-members
    type: parse
  - name: members-title
    type: assert_title
    title: Members
`, server.URL))

		rep := runScenario(context.Background(), testConfig(), path, discardLogger())

		if !rep.Success {
			t.Fatalf("run failed: %s", rep.ErrorMessage)
		}
		if rep.Scenario != "login-check" {
			t.Errorf("got scenario %q, expected login-check", rep.Scenario)
		}
		// follow_link and submit_form each splice in a request step.
		if len(rep.Steps) < 8 {
			t.Errorf("got %d steps, expected at least 8", len(rep.Steps))
		}
	})

	t.Run("failed assertion names the failing step", func(t *testing.T) {
		t.Parallel()

		server := newLoginServer(t)
		path := writeScenario(t, "bad-title.yml", fmt.Sprintf(`
name: bad-title
steps:
  - name: open-home
    type: request
    url: %[1]s/
  - name: parse-home
    type: parse
  - name: wrong-title
    type: assert_title
    title: Nope
`, server.URL))

		rep := runScenario(context.Background(), testConfig(), path, discardLogger())

		if rep.Success {
			t.Fatal("expected failure")
		}
		if !strings.Contains(rep.ErrorMessage, "wrong-title") {
			t.Errorf("error %q missing failing step name", rep.ErrorMessage)
		}
	})

	t.Run("missing scenario file is reported in the report", func(t *testing.T) {
		t.Parallel()

		rep := runScenario(context.Background(), testConfig(), "/nonexistent/missing.yml", discardLogger())

		if rep.Success {
			t.Fatal("expected failure")
		}
		if rep.ErrorMessage == "" {
			t.Error("expected error message")
		}
	})

	t.Run("invalid step type is reported in the report", func(t *testing.T) {
		t.Parallel()

		path := writeScenario(t, "bad-type.yml", `
name: bad-type
steps:
  - name: mystery
    type: teleport
`)

		rep := runScenario(context.Background(), testConfig(), path, discardLogger())

		if rep.Success {
			t.Fatal("expected failure")
		}
		if !strings.Contains(rep.ErrorMessage, "teleport") {
			t.Errorf("error %q missing unknown type", rep.ErrorMessage)
		}
	})
}

// TestBuildConfig tests flag-to-config translation.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults and resolves scenarios", func(t *testing.T) {
		t.Parallel()

		path := writeScenario(t, "smoke.yml", "name: smoke\nsteps:\n  - {name: s, type: parse}\n")

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("got timeout %s, expected default", cfg.Timeout)
		}
		if cfg.UserAgent != config.DefaultUserAgent {
			t.Errorf("got user agent %q, expected default", cfg.UserAgent)
		}
		if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != path {
			t.Errorf("got scenarios %v, expected [%s]", cfg.Scenarios, path)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB by default")
		}
	})

	t.Run("no-save disables history", func(t *testing.T) {
		t.Parallel()

		path := writeScenario(t, "smoke.yml", "name: smoke\nsteps:\n  - {name: s, type: parse}\n")

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--no-save"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB disabled")
		}
		if cfg.DBDir != "" {
			t.Errorf("expected empty DBDir, got %q", cfg.DBDir)
		}
	})

	t.Run("unknown scenario fails early", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, []string{"/does/not/exist.yml"}); err == nil {
			t.Fatal("expected error for unknown scenario")
		}
	})
}
