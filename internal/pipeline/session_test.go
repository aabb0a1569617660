package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
)

// TestNewSession tests session construction and options.
func TestNewSession(t *testing.T) {
	t.Parallel()

	t.Run("synthesizes a cookie-carrying client by default", func(t *testing.T) {
		t.Parallel()

		session := NewSession()

		if session.Client == nil {
			t.Fatal("expected a default HTTP client")
		}
		if session.Client.Jar == nil {
			t.Error("expected the default client to carry a cookie jar")
		}
	})

	t.Run("applies WithClient", func(t *testing.T) {
		t.Parallel()

		client := &http.Client{}
		session := NewSession(WithClient(client))

		if session.Client != client {
			t.Error("expected the supplied client to be used")
		}
	})

	t.Run("applies WithLogger", func(t *testing.T) {
		t.Parallel()

		logger := slog.Default()
		session := NewSession(WithLogger(logger))

		if session.logger != logger {
			t.Error("expected the supplied logger to be used")
		}
	})

	t.Run("applies WithValue", func(t *testing.T) {
		t.Parallel()

		session := NewSession(WithValue("account", "tester"))

		if session.Values["account"] != "tester" {
			t.Errorf("got %v, expected tester", session.Values["account"])
		}
	})

	t.Run("hooks default to nil and the run proceeds without them", func(t *testing.T) {
		t.Parallel()

		session := NewSession()
		if session.BeforeStep != nil || session.AfterStep != nil || session.BeforeRequest != nil {
			t.Error("expected hooks to default to nil")
		}

		if _, err := session.RunSteps(context.Background(), valueStep("lone", 1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
