package steps

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// LinkConfig selects one link from the previous document.
// Selection criteria are tried in order: Text, Pattern, Index. At least one
// of Text or Pattern should be set; with neither, Index selects positionally
// (0 is the first link).
type LinkConfig struct {
	// Text selects the first link whose anchor text contains this string,
	// case-insensitively.
	Text string

	// Pattern selects the first link whose URL matches this regular
	// expression.
	Pattern string

	// Index selects the link at this position when Text and Pattern are
	// empty.
	Index int

	// UserAgent is forwarded to the produced request step.
	UserAgent string

	// MaxBodySize is forwarded to the produced request step.
	MaxBodySize int64
}

// FollowLink is a step that selects a link from the previous document and
// splices a Request step for it into the run. The produced request's result
// becomes this step's result, so a follow-link step behaves exactly like
// fetching the linked page directly.
type FollowLink struct {
	pipeline.Base
}

// NewFollowLink creates a follow-link step with a static selection.
func NewFollowLink(name string, config LinkConfig) *FollowLink {
	return &FollowLink{Base: pipeline.NewBase(name, config)}
}

// NewFollowLinkWithResolver creates a follow-link step whose selection is
// computed from the previous step's result.
func NewFollowLinkWithResolver(name string, resolve pipeline.Resolver) *FollowLink {
	return &FollowLink{Base: pipeline.NewBaseWithResolver(name, resolve)}
}

// Execute selects the link and returns a Continue with the request to fetch it.
func (s *FollowLink) Execute(_ context.Context, _ *pipeline.Session, prev *pipeline.StepRecord) (pipeline.Outcome, error) {
	doc, err := previousDocument(prev)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	cfg, ok := s.Config().(LinkConfig)
	if !ok {
		return pipeline.Outcome{}, fmt.Errorf("%w: %T is not a link selection", ErrInvalidConfig, s.Config())
	}

	link, err := selectLink(doc, cfg)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	return pipeline.Continue(NewRequest(s.Name()+":request", RequestConfig{
		URL:         link.URL,
		UserAgent:   cfg.UserAgent,
		MaxBodySize: cfg.MaxBodySize,
	})), nil
}

// selectLink applies the selection criteria to the document's links.
func selectLink(doc *Document, cfg LinkConfig) (Link, error) {
	switch {
	case cfg.Text != "":
		want := strings.ToLower(cfg.Text)
		for _, link := range doc.Links {
			if strings.Contains(strings.ToLower(link.Text), want) {
				return link, nil
			}
		}
		return Link{}, fmt.Errorf("%w: no anchor text contains %q", ErrLinkNotFound, cfg.Text)

	case cfg.Pattern != "":
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return Link{}, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidConfig, cfg.Pattern, err)
		}
		for _, link := range doc.Links {
			if re.MatchString(link.URL) {
				return link, nil
			}
		}
		return Link{}, fmt.Errorf("%w: no URL matches %q", ErrLinkNotFound, cfg.Pattern)

	default:
		if cfg.Index < 0 || cfg.Index >= len(doc.Links) {
			return Link{}, fmt.Errorf("%w: index %d out of %d links", ErrLinkNotFound, cfg.Index, len(doc.Links))
		}
		return doc.Links[cfg.Index], nil
	}
}

// previousDocument extracts the *Document from the previous step's record.
func previousDocument(prev *pipeline.StepRecord) (*Document, error) {
	if prev == nil || prev.Result == nil {
		return nil, fmt.Errorf("%w: a parsed document is needed", pipeline.ErrNoPreviousResult)
	}
	doc, ok := prev.Result.(*Document)
	if !ok {
		return nil, fmt.Errorf("%w: previous result is %T, not a document", pipeline.ErrNoPreviousResult, prev.Result)
	}
	return doc, nil
}
