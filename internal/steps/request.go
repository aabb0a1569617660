package steps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/webpilot/internal/config"
	"github.com/nao1215/webpilot/internal/pipeline"
)

// RequestConfig describes one HTTP exchange performed by a Request step.
type RequestConfig struct {
	// URL is the absolute request URL. Required.
	URL string

	// Method is the HTTP method. Defaults to GET, or POST when Form is set.
	Method string

	// Header holds additional request headers. A User-Agent is added when
	// none is present.
	Header http.Header

	// Form holds form fields sent as an application/x-www-form-urlencoded
	// body for POST requests, or appended to the query string for GET.
	Form url.Values

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// MaxBodySize caps the response body read, in bytes.
	// Zero means config.DefaultMaxBodySize.
	MaxBodySize int64
}

// Response is the result produced by a Request step.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code of the final response.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body, decoded to UTF-8 and capped at the
	// configured maximum size.
	Body []byte
}

// Request is a step that performs one HTTP exchange using the session's
// client, so cookies set by earlier steps are presented automatically.
//
// The configuration may be resolved dynamically: a resolver (or the previous
// step's result, in identity mode) may supply a RequestConfig, a
// *RequestConfig, or a bare URL string, which is treated as a GET.
type Request struct {
	pipeline.Base
}

// NewRequest creates a request step with a static configuration.
func NewRequest(name string, config RequestConfig) *Request {
	return &Request{Base: pipeline.NewBase(name, config)}
}

// NewRequestFromPrevious creates a request step whose configuration is the
// previous step's result (e.g., a URL string extracted by an earlier step).
func NewRequestFromPrevious(name string) *Request {
	return &Request{Base: pipeline.NewBaseFromPrevious(name)}
}

// NewRequestWithResolver creates a request step whose configuration is
// computed from the previous step's result.
func NewRequestWithResolver(name string, resolve pipeline.Resolver) *Request {
	return &Request{Base: pipeline.NewBaseWithResolver(name, resolve)}
}

// Execute performs the HTTP exchange and returns a *Response.
func (s *Request) Execute(ctx context.Context, session *pipeline.Session, _ *pipeline.StepRecord) (pipeline.Outcome, error) {
	cfg, err := requestConfig(s.Config())
	if err != nil {
		return pipeline.Outcome{}, err
	}

	if session.BeforeRequest != nil {
		if err := session.BeforeRequest(ctx, s, cfg); err != nil {
			return pipeline.Outcome{}, fmt.Errorf("before-request hook: %w", err)
		}
	}

	req, err := buildRequest(ctx, cfg)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	resp, err := session.Client.Do(req)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("request %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = config.DefaultMaxBodySize
	}

	// Cap the read to avoid memory exhaustion from unexpectedly large
	// responses. Truncation is silent; automation targets are small pages.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("read body of %s: %w", cfg.URL, err)
	}

	return pipeline.Done(&Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       decodeBody(body, resp.Header.Get("Content-Type")),
	}), nil
}

// requestConfig normalizes the step's resolved configuration.
// Accepted shapes: RequestConfig, *RequestConfig, or a URL string (GET).
func requestConfig(raw any) (RequestConfig, error) {
	switch v := raw.(type) {
	case RequestConfig:
		return v, nil
	case *RequestConfig:
		if v == nil {
			return RequestConfig{}, fmt.Errorf("%w: nil *RequestConfig", ErrInvalidConfig)
		}
		return *v, nil
	case string:
		return RequestConfig{URL: v}, nil
	case nil:
		return RequestConfig{}, fmt.Errorf("%w: missing request configuration", ErrInvalidConfig)
	default:
		return RequestConfig{}, fmt.Errorf("%w: %T is not a request configuration", ErrInvalidConfig, raw)
	}
}

// buildRequest constructs the *http.Request for the exchange.
func buildRequest(ctx context.Context, cfg RequestConfig) (*http.Request, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: request URL is empty", ErrInvalidConfig)
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		if len(cfg.Form) > 0 {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}

	target := cfg.URL
	var body io.Reader
	switch {
	case len(cfg.Form) > 0 && method == http.MethodGet:
		// GET forms carry their fields in the query string.
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse URL %q: %w", target, err)
		}
		query := u.Query()
		for key, values := range cfg.Form {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		u.RawQuery = query.Encode()
		target = u.String()
	case len(cfg.Form) > 0:
		body = strings.NewReader(cfg.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", target, err)
	}

	for key, values := range cfg.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.Header.Get("User-Agent") == "" {
		userAgent := cfg.UserAgent
		if userAgent == "" {
			userAgent = config.DefaultUserAgent
		}
		req.Header.Set("User-Agent", userAgent)
	}

	return req, nil
}

// decodeBody converts the body to UTF-8 using the charset declared in the
// Content-Type header or sniffed from the content. Bodies that are already
// UTF-8, or whose encoding cannot be determined, are returned unchanged.
func decodeBody(body []byte, contentType string) []byte {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if enc == nil || name == "utf-8" {
		return body
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		// Keep the raw bytes rather than failing the whole step over a
		// mislabeled charset.
		return body
	}
	return decoded
}
