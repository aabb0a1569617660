package steps

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// Extraction source kinds accepted by ExtractConfig.Part.
const (
	// ExtractTitle extracts the document title.
	ExtractTitle = "title"

	// ExtractMeta extracts a meta tag's content; Key names the tag.
	ExtractMeta = "meta"

	// ExtractText applies Pattern to the document's visible text (or a
	// response's body) and extracts the first capture group, or the whole
	// match when the pattern has no groups.
	ExtractText = "text"
)

// ExtractConfig describes what to pull out of the previous result.
type ExtractConfig struct {
	// Part is one of the Extract* constants. Defaults to ExtractText when
	// Pattern is set, ExtractTitle otherwise.
	Part string

	// Key names the meta tag for ExtractMeta.
	Key string

	// Pattern is the regular expression for ExtractText.
	Pattern string
}

// Extract is a step that pulls a string value from the previous document or
// response. Its result typically feeds a later resolver-mode step, e.g., a
// request whose URL was discovered on a page.
type Extract struct {
	pipeline.Base
}

// NewExtract creates an extract step with a static configuration.
func NewExtract(name string, config ExtractConfig) *Extract {
	return &Extract{Base: pipeline.NewBase(name, config)}
}

// Execute performs the extraction and returns the extracted string.
func (s *Extract) Execute(_ context.Context, _ *pipeline.Session, prev *pipeline.StepRecord) (pipeline.Outcome, error) {
	if prev == nil || prev.Result == nil {
		return pipeline.Outcome{}, fmt.Errorf("%w: extraction needs a document or response", pipeline.ErrNoPreviousResult)
	}

	cfg, ok := s.Config().(ExtractConfig)
	if !ok {
		return pipeline.Outcome{}, fmt.Errorf("%w: %T is not an extract configuration", ErrInvalidConfig, s.Config())
	}

	part := cfg.Part
	if part == "" {
		if cfg.Pattern != "" {
			part = ExtractText
		} else {
			part = ExtractTitle
		}
	}

	switch part {
	case ExtractTitle:
		doc, err := previousDocument(prev)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		if doc.Title == "" {
			return pipeline.Outcome{}, fmt.Errorf("%w: document has no title", ErrNoMatch)
		}
		return pipeline.Done(doc.Title), nil

	case ExtractMeta:
		doc, err := previousDocument(prev)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		content, ok := doc.Meta[cfg.Key]
		if !ok {
			return pipeline.Outcome{}, fmt.Errorf("%w: no meta tag %q", ErrNoMatch, cfg.Key)
		}
		return pipeline.Done(content), nil

	case ExtractText:
		text, err := previousText(prev)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return pipeline.Outcome{}, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidConfig, cfg.Pattern, err)
		}
		match := re.FindStringSubmatch(text)
		if match == nil {
			return pipeline.Outcome{}, fmt.Errorf("%w: pattern %q", ErrNoMatch, cfg.Pattern)
		}
		if len(match) > 1 {
			return pipeline.Done(match[1]), nil
		}
		return pipeline.Done(match[0]), nil

	default:
		return pipeline.Outcome{}, fmt.Errorf("%w: unknown part %q", ErrInvalidConfig, part)
	}
}

// previousText returns the searchable text of the previous result: the
// visible text of a document, or the raw body of a response.
func previousText(prev *pipeline.StepRecord) (string, error) {
	switch v := prev.Result.(type) {
	case *Document:
		return v.Text, nil
	case *Response:
		return string(v.Body), nil
	default:
		return "", fmt.Errorf("%w: previous result is %T", pipeline.ErrNoPreviousResult, prev.Result)
	}
}
