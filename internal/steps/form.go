package steps

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// FormConfig selects a form from the previous document and supplies the
// field values to submit.
type FormConfig struct {
	// Selector matches the form's name or id attribute. Empty selects the
	// first form in the document.
	Selector string

	// Fields maps field names to values. They are merged over the form's
	// default values; fields the form does not declare are sent as given,
	// so callers can supply fields added client-side.
	Fields map[string]string

	// UserAgent is forwarded to the produced request step.
	UserAgent string

	// MaxBodySize is forwarded to the produced request step.
	MaxBodySize int64
}

// SubmitForm is a step that fills in a form from the previous document and
// splices a Request step into the run that submits it with the form's own
// method and action. Default values of hidden fields (CSRF tokens, state)
// are preserved unless overridden.
type SubmitForm struct {
	pipeline.Base
}

// NewSubmitForm creates a submit-form step with a static configuration.
func NewSubmitForm(name string, config FormConfig) *SubmitForm {
	return &SubmitForm{Base: pipeline.NewBase(name, config)}
}

// NewSubmitFormWithResolver creates a submit-form step whose configuration
// is computed from the previous step's result (e.g., credentials extracted
// earlier in the run).
func NewSubmitFormWithResolver(name string, resolve pipeline.Resolver) *SubmitForm {
	return &SubmitForm{Base: pipeline.NewBaseWithResolver(name, resolve)}
}

// Execute selects the form and returns a Continue with the submitting request.
func (s *SubmitForm) Execute(_ context.Context, _ *pipeline.Session, prev *pipeline.StepRecord) (pipeline.Outcome, error) {
	doc, err := previousDocument(prev)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	cfg, ok := s.Config().(FormConfig)
	if !ok {
		return pipeline.Outcome{}, fmt.Errorf("%w: %T is not a form configuration", ErrInvalidConfig, s.Config())
	}

	form, err := selectForm(doc, cfg.Selector)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	values := serializeForm(form, cfg.Fields)

	return pipeline.Continue(NewRequest(s.Name()+":request", RequestConfig{
		URL:         form.Action,
		Method:      form.Method,
		Form:        values,
		UserAgent:   cfg.UserAgent,
		MaxBodySize: cfg.MaxBodySize,
	})), nil
}

// selectForm finds the form matching the selector.
func selectForm(doc *Document, selector string) (Form, error) {
	if len(doc.Forms) == 0 {
		return Form{}, fmt.Errorf("%w: document has no forms", ErrFormNotFound)
	}

	if selector == "" {
		return doc.Forms[0], nil
	}

	for _, form := range doc.Forms {
		if strings.EqualFold(form.Name, selector) || strings.EqualFold(form.ID, selector) {
			return form, nil
		}
	}

	return Form{}, fmt.Errorf("%w: no form named %q", ErrFormNotFound, selector)
}

// serializeForm builds the submission values: the form's declared fields
// with their default values, overridden and extended by the caller's fields.
func serializeForm(form Form, overrides map[string]string) url.Values {
	values := make(url.Values)

	for _, field := range form.Fields {
		// Unchecked checkboxes and submit buttons without names are
		// already filtered out during parsing (unnamed fields dropped).
		values.Set(field.Name, field.Value)
	}

	for name, value := range overrides {
		values.Set(name, value)
	}

	return values
}
