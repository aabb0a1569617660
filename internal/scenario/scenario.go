package scenario

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/webpilot/internal/config"
	"github.com/nao1215/webpilot/internal/pipeline"
	"github.com/nao1215/webpilot/internal/steps"
)

// Step type names accepted in scenario files.
const (
	TypeRequest      = "request"
	TypeParse        = "parse"
	TypeFollowLink   = "follow_link"
	TypeSubmitForm   = "submit_form"
	TypeExtract      = "extract"
	TypeAssertStatus = "assert_status"
	TypeAssertTitle  = "assert_title"
	TypeAssertText   = "assert_text"
)

// Scenario is a declarative pipeline definition loaded from YAML.
type Scenario struct {
	// Name identifies the scenario in logs, reports, and run history.
	Name string `yaml:"name"`

	// Steps is the ordered list of step specifications.
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec describes one step in a scenario file. Which fields apply depends
// on Type; Build rejects specs missing a required parameter.
//
// Design decision: We use a single flat spec struct rather than one YAML
// shape per step type. Scenario files stay uniform, unknown keys surface as
// obvious no-ops during review, and the switch in Build is the single place
// that knows which fields each type consumes.
type StepSpec struct {
	// Name is the step's name, used in logs and error attribution. Required.
	Name string `yaml:"name"`

	// Type selects the step kind; one of the Type* constants. Required.
	Type string `yaml:"type"`

	// URL is the request target (request).
	URL string `yaml:"url,omitempty"`

	// Method is the HTTP method (request). Defaults to GET, or POST when
	// Form is set.
	Method string `yaml:"method,omitempty"`

	// Headers are additional HTTP headers (request).
	Headers map[string]string `yaml:"headers,omitempty"`

	// Form holds form fields sent with the request (request).
	Form map[string]string `yaml:"form,omitempty"`

	// ConfigFrom set to "previous" makes the request adopt the previous
	// step's result as its configuration, e.g. a URL extracted earlier.
	ConfigFrom string `yaml:"config_from,omitempty"`

	// Text selects a link by anchor text (follow_link), or the expected
	// substring (assert_text).
	Text string `yaml:"text,omitempty"`

	// Pattern selects a link by URL (follow_link) or the regular
	// expression to extract (extract).
	Pattern string `yaml:"pattern,omitempty"`

	// Index selects a link positionally (follow_link).
	Index int `yaml:"index,omitempty"`

	// Selector matches a form's name or id (submit_form).
	Selector string `yaml:"selector,omitempty"`

	// Fields are the form values to submit (submit_form).
	Fields map[string]string `yaml:"fields,omitempty"`

	// Part selects what to extract: title, meta, or text (extract).
	Part string `yaml:"part,omitempty"`

	// Key names the meta tag to extract (extract).
	Key string `yaml:"key,omitempty"`

	// Status is the expected HTTP status (assert_status).
	Status int `yaml:"status,omitempty"`

	// Title is the expected document title (assert_title).
	Title string `yaml:"title,omitempty"`
}

// Validate checks the scenario's structural requirements.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %q", ErrNoSteps, s.Name)
	}

	for i, spec := range s.Steps {
		if spec.Name == "" {
			return fmt.Errorf("%w: step %d", ErrStepName, i)
		}
		if spec.Type == "" {
			return fmt.Errorf("%w: step %q has no type", ErrUnknownStepType, spec.Name)
		}
	}

	return nil
}

// Build converts the scenario into executable pipeline steps, applying the
// runtime configuration (user agent, body size limit) to the HTTP steps.
func (s *Scenario) Build(cfg *config.Config) ([]pipeline.Step, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	built := make([]pipeline.Step, 0, len(s.Steps))
	for _, spec := range s.Steps {
		step, err := buildStep(spec, cfg)
		if err != nil {
			return nil, err
		}
		built = append(built, step)
	}

	return built, nil
}

// buildStep converts one step spec.
func buildStep(spec StepSpec, cfg *config.Config) (pipeline.Step, error) {
	switch spec.Type {
	case TypeRequest:
		if spec.ConfigFrom == "previous" {
			return steps.NewRequestFromPrevious(spec.Name), nil
		}
		if spec.URL == "" {
			return nil, fmt.Errorf("%w: request %q has no url", ErrMissingParameter, spec.Name)
		}
		return steps.NewRequest(spec.Name, steps.RequestConfig{
			URL:         spec.URL,
			Method:      spec.Method,
			Header:      headerFromMap(spec.Headers),
			Form:        valuesFromMap(spec.Form),
			UserAgent:   cfg.UserAgent,
			MaxBodySize: cfg.MaxBodySize,
		}), nil

	case TypeParse:
		return steps.NewParse(spec.Name), nil

	case TypeFollowLink:
		// Text and Pattern empty with index 0 selects the first link.
		return steps.NewFollowLink(spec.Name, steps.LinkConfig{
			Text:        spec.Text,
			Pattern:     spec.Pattern,
			Index:       spec.Index,
			UserAgent:   cfg.UserAgent,
			MaxBodySize: cfg.MaxBodySize,
		}), nil

	case TypeSubmitForm:
		return steps.NewSubmitForm(spec.Name, steps.FormConfig{
			Selector:    spec.Selector,
			Fields:      spec.Fields,
			UserAgent:   cfg.UserAgent,
			MaxBodySize: cfg.MaxBodySize,
		}), nil

	case TypeExtract:
		if spec.Part == "" && spec.Pattern == "" {
			return nil, fmt.Errorf("%w: extract %q needs part or pattern", ErrMissingParameter, spec.Name)
		}
		return steps.NewExtract(spec.Name, steps.ExtractConfig{
			Part:    spec.Part,
			Key:     spec.Key,
			Pattern: spec.Pattern,
		}), nil

	case TypeAssertStatus:
		if spec.Status == 0 {
			return nil, fmt.Errorf("%w: assert_status %q has no status", ErrMissingParameter, spec.Name)
		}
		return steps.NewAssertStatus(spec.Name, spec.Status), nil

	case TypeAssertTitle:
		if spec.Title == "" {
			return nil, fmt.Errorf("%w: assert_title %q has no title", ErrMissingParameter, spec.Name)
		}
		return steps.NewAssertTitle(spec.Name, spec.Title), nil

	case TypeAssertText:
		if spec.Text == "" {
			return nil, fmt.Errorf("%w: assert_text %q has no text", ErrMissingParameter, spec.Name)
		}
		return buildAssertText(spec.Name, spec.Text), nil

	default:
		return nil, fmt.Errorf("%w: %q (step %q)", ErrUnknownStepType, spec.Type, spec.Name)
	}
}

// buildAssertText asserts that the previous document or response contains
// the given substring.
func buildAssertText(name, want string) pipeline.Step {
	return steps.NewAssert(name,
		func(prev any) bool {
			text, ok := previousBody(prev)
			return ok && strings.Contains(text, want)
		},
		func(prev any) string {
			if _, ok := previousBody(prev); !ok {
				return fmt.Sprintf("previous result is %T, not a page", prev)
			}
			return fmt.Sprintf("page does not contain %q", want)
		},
	)
}

// previousBody returns the searchable text of a document or response result.
func previousBody(prev any) (string, bool) {
	switch v := prev.(type) {
	case *steps.Document:
		return v.Text, true
	case *steps.Response:
		return string(v.Body), true
	default:
		return "", false
	}
}

// headerFromMap converts scenario headers to http.Header.
func headerFromMap(m map[string]string) http.Header {
	if len(m) == 0 {
		return nil
	}
	header := make(http.Header, len(m))
	for key, value := range m {
		header.Set(key, value)
	}
	return header
}

// valuesFromMap converts scenario form fields to url.Values.
func valuesFromMap(m map[string]string) url.Values {
	if len(m) == 0 {
		return nil
	}
	values := make(url.Values, len(m))
	for key, value := range m {
		values.Set(key, value)
	}
	return values
}
