package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandlerSanitization tests attribute masking.
func TestSecureHandlerSanitization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		value      string
		wantMasked bool
	}{
		{name: "cookie header is masked", key: "cookie", value: "sid=abc123", wantMasked: true},
		{name: "set-cookie header is masked", key: "Set-Cookie", value: "sid=abc123", wantMasked: true},
		{name: "password form field is masked", key: "password", value: "hunter2", wantMasked: true},
		{name: "csrf token is masked", key: "csrf_token", value: "tok-9", wantMasked: true},
		{name: "authorization header is masked", key: "authorization", value: "Bearer abc", wantMasked: true},
		{name: "keyword inside key is masked", key: "login_password", value: "hunter2", wantMasked: true},
		{name: "plain url is kept", key: "url", value: "http://example.test/login", wantMasked: false},
		{name: "step name is kept", key: "step", value: "open-login", wantMasked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			if tt.wantMasked {
				if strings.Contains(output, tt.value) {
					t.Errorf("output %q leaked value %q", output, tt.value)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("output %q missing mask", output)
				}
			} else if !strings.Contains(output, tt.value) {
				t.Errorf("output %q lost benign value %q", output, tt.value)
			}
		})
	}
}

// TestSecureHandlerValuePatterns tests value-based masking regardless of key.
func TestSecureHandlerValuePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "jwt", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"},
		{name: "bearer token", value: "Bearer abc.def.ghi"},
		{name: "session cookie pair", value: "session_id=deadbeef; Path=/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", "detail", tt.value)

			if strings.Contains(buf.String(), tt.value) {
				t.Errorf("output %q leaked value", buf.String())
			}
		})
	}
}

// TestSecureHandlerGroups tests recursive sanitization inside groups.
func TestSecureHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("test", slog.Group("request",
		slog.String("url", "http://example.test"),
		slog.String("cookie", "sid=abc"),
	))

	output := buf.String()
	if strings.Contains(output, "sid=abc") {
		t.Errorf("output %q leaked grouped cookie", output)
	}
	if !strings.Contains(output, "http://example.test") {
		t.Errorf("output %q lost benign grouped value", output)
	}
}

// TestNewSecureLogger tests level selection.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose logger emits debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debugging")

		if !strings.Contains(buf.String(), "debugging") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("quiet logger suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Info("chatty")

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}
