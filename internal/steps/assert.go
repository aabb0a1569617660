package steps

import (
	"context"
	"fmt"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// CheckFunc evaluates an expected condition against the previous step's
// result.
type CheckFunc func(prev any) bool

// ExplainFunc produces a human-readable explanation of a failed assertion.
// It is invoked lazily, only when the check returns false, so it may format
// the previous result without cost on the success path.
type ExplainFunc func(prev any) string

// Assert is a step whose failure specifically means "the expected condition
// was false". It passes the previous result through unchanged on success, so
// it can be dropped into a pipeline between any two steps.
type Assert struct {
	pipeline.Base
	check   CheckFunc
	explain ExplainFunc
}

// NewAssert creates an assertion step. explain may be nil, in which case the
// failure carries only the assertion's name.
func NewAssert(name string, check CheckFunc, explain ExplainFunc) *Assert {
	return &Assert{
		Base:    pipeline.NewBase(name, nil),
		check:   check,
		explain: explain,
	}
}

// Execute evaluates the check against the previous result.
func (s *Assert) Execute(_ context.Context, _ *pipeline.Session, prev *pipeline.StepRecord) (pipeline.Outcome, error) {
	var result any
	if prev != nil {
		result = prev.Result
	}

	if !s.check(result) {
		if s.explain != nil {
			return pipeline.Outcome{}, fmt.Errorf("%w: %s", ErrAssertionFailed, s.explain(result))
		}
		return pipeline.Outcome{}, ErrAssertionFailed
	}

	return pipeline.Done(result), nil
}

// NewAssertStatus creates an assertion that the previous result is a
// response with the given HTTP status code.
func NewAssertStatus(name string, status int) *Assert {
	return NewAssert(name,
		func(prev any) bool {
			resp, ok := prev.(*Response)
			return ok && resp.StatusCode == status
		},
		func(prev any) string {
			resp, ok := prev.(*Response)
			if !ok {
				return fmt.Sprintf("previous result is %T, not a response", prev)
			}
			return fmt.Sprintf("expected status %d, got %d from %s", status, resp.StatusCode, resp.URL)
		},
	)
}

// NewAssertTitle creates an assertion that the previous result is a document
// whose title equals want.
func NewAssertTitle(name, want string) *Assert {
	return NewAssert(name,
		func(prev any) bool {
			doc, ok := prev.(*Document)
			return ok && doc.Title == want
		},
		func(prev any) string {
			doc, ok := prev.(*Document)
			if !ok {
				return fmt.Sprintf("previous result is %T, not a document", prev)
			}
			return fmt.Sprintf("expected title %q, got %q", want, doc.Title)
		},
	)
}
