package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// TestAssert tests the assertion step kind.
func TestAssert(t *testing.T) {
	t.Parallel()

	t.Run("passes the previous result through on success", func(t *testing.T) {
		t.Parallel()

		step := NewAssert("positive", func(prev any) bool {
			return prev.(int) > 0
		}, nil)

		prev := &pipeline.StepRecord{Name: "count", Result: 7}
		outcome, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Value() != 7 {
			t.Errorf("got %v, expected the previous result", outcome.Value())
		}
	})

	t.Run("failure carries the assertion name and explanation", func(t *testing.T) {
		t.Parallel()

		explained := 0
		step := NewAssert("balance-positive",
			func(_ any) bool { return false },
			func(prev any) string {
				explained++
				return "balance was negative"
			},
		)

		session := pipeline.NewSession()
		_, err := session.RunSteps(context.Background(), NewAssert("seed", func(any) bool { return true }, nil), step)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "balance-positive") {
			t.Errorf("error %q missing assertion name", err)
		}
		if !strings.Contains(err.Error(), "balance was negative") {
			t.Errorf("error %q missing explanation", err)
		}
		if !errors.Is(err, ErrAssertionFailed) {
			t.Errorf("got %v, expected ErrAssertionFailed", err)
		}
		if explained != 1 {
			t.Errorf("explanation computed %d times, expected 1", explained)
		}
	})

	t.Run("explanation is not computed on success", func(t *testing.T) {
		t.Parallel()

		explained := 0
		step := NewAssert("fine",
			func(_ any) bool { return true },
			func(_ any) string {
				explained++
				return "never shown"
			},
		)

		if _, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, &pipeline.StepRecord{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if explained != 0 {
			t.Errorf("explanation computed %d times on success, expected 0", explained)
		}
	})

	t.Run("status assertion explains the mismatch", func(t *testing.T) {
		t.Parallel()

		step := NewAssertStatus("ok-status", 200)
		prev := &pipeline.StepRecord{Result: &Response{URL: "http://site.test/x", StatusCode: 404}}

		_, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("error %q missing actual status", err)
		}
	})

	t.Run("title assertion succeeds on matching documents", func(t *testing.T) {
		t.Parallel()

		step := NewAssertTitle("title", "Members")
		prev := &pipeline.StepRecord{Result: &Document{Title: "Members"}}

		if _, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
