package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// TestExtract tests value extraction from documents and responses.
func TestExtract(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Title: "Dashboard",
		Meta:  map[string]string{"generator": "examplecms 2.1"},
		Text:  "Hello tester, your plan is gold. Build 20260815.",
	}

	t.Run("extracts the title by default", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("title", ExtractConfig{})
		prev := &pipeline.StepRecord{Result: doc}

		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != "Dashboard" {
			t.Errorf("got %v, expected Dashboard", outcome.Value())
		}
	})

	t.Run("extracts a meta tag by key", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("generator", ExtractConfig{Part: ExtractMeta, Key: "generator"})
		prev := &pipeline.StepRecord{Result: doc}

		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != "examplecms 2.1" {
			t.Errorf("got %v, expected the meta content", outcome.Value())
		}
	})

	t.Run("extracts the first capture group from text", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("plan", ExtractConfig{Pattern: `plan is (\w+)`})
		prev := &pipeline.StepRecord{Result: doc}

		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != "gold" {
			t.Errorf("got %v, expected gold", outcome.Value())
		}
	})

	t.Run("extracts from a raw response body", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("token", ExtractConfig{Pattern: `token=([a-z0-9]+)`})
		prev := &pipeline.StepRecord{Result: &Response{Body: []byte(`{"token=abc123"}`)}}

		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != "abc123" {
			t.Errorf("got %v, expected abc123", outcome.Value())
		}
	})

	t.Run("fails when nothing matches", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("missing", ExtractConfig{Pattern: `plan is (silver)`})
		prev := &pipeline.StepRecord{Result: doc}

		_, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if !errors.Is(err, ErrNoMatch) {
			t.Errorf("got %v, expected ErrNoMatch", err)
		}
	})

	t.Run("fails without a previous result", func(t *testing.T) {
		t.Parallel()

		step := NewExtract("lost", ExtractConfig{})
		_, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, &pipeline.StepRecord{})
		if !errors.Is(err, pipeline.ErrNoPreviousResult) {
			t.Errorf("got %v, expected ErrNoPreviousResult", err)
		}
	})

	t.Run("feeds a later request through a resolver", func(t *testing.T) {
		t.Parallel()

		// The extracted value is available as the previous result, so an
		// identity-mode request can consume it directly.
		step := NewExtract("next-url", ExtractConfig{Pattern: `(http://site\.test/next)`})
		prev := &pipeline.StepRecord{Result: &Document{Text: "continue at http://site.test/next today"}}

		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != "http://site.test/next" {
			t.Errorf("got %v, expected the URL", outcome.Value())
		}
	})
}
