package steps

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/webpilot/internal/pipeline"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
)

// Document is a parsed HTML page: the raw node tree plus the links, forms,
// and metadata that the navigation steps work with.
//
// Design decision: We extract everything in a single parsing pass and return
// a comprehensive struct rather than exposing query methods, because the
// navigation steps need the same few collections (links, forms) on every
// page and a single pass keeps parsing cost predictable.
type Document struct {
	// URL is the URL the page was fetched from, used as the base for
	// resolving relative links and form actions.
	URL string

	// Root is the parsed HTML tree, for callers needing ad-hoc traversal.
	Root *html.Node

	// Title is the page title from the <title> tag.
	Title string

	// Links contains all anchors with their resolved targets.
	Links []Link

	// Forms contains all forms with their fields and default values.
	Forms []Form

	// Meta maps meta tag names (or OpenGraph properties) to content.
	Meta map[string]string

	// Text is the concatenated visible text content, for extraction steps.
	Text string
}

// Link is an anchor extracted from a document.
type Link struct {
	// Text is the anchor's trimmed text content.
	Text string

	// URL is the href resolved against the document URL.
	URL string
}

// Form describes an HTML form and its fields.
type Form struct {
	// Name is the form's name attribute.
	Name string

	// ID is the form's id attribute.
	ID string

	// Action is the form action resolved against the document URL.
	// Defaults to the document URL itself when the action is absent.
	Action string

	// Method is the HTTP method, uppercased. Defaults to GET.
	Method string

	// Fields contains the form's named fields with default values.
	Fields []FormField
}

// FormField represents a form input field.
type FormField struct {
	// Name is the field name attribute.
	Name string

	// Type is the input type (text, password, hidden, etc.).
	Type string

	// Value is the default value if present.
	Value string
}

// Parse is a step that parses the previous step's *Response body into a
// *Document. It must follow a step producing a *Response; running it first
// in a pipeline is a usage error.
type Parse struct {
	pipeline.Base
}

// NewParse creates a parse step. The response to parse is taken from the
// previous step's result.
func NewParse(name string) *Parse {
	return &Parse{Base: pipeline.NewBaseFromPrevious(name)}
}

// Execute parses the previous response into a Document.
func (s *Parse) Execute(_ context.Context, _ *pipeline.Session, prev *pipeline.StepRecord) (pipeline.Outcome, error) {
	if prev == nil || prev.Result == nil {
		return pipeline.Outcome{}, fmt.Errorf("%w: parse needs a fetched response", pipeline.ErrNoPreviousResult)
	}

	resp, ok := s.Config().(*Response)
	if !ok {
		return pipeline.Outcome{}, fmt.Errorf("%w: %T is not a response", ErrInvalidConfig, s.Config())
	}

	doc, err := ParseDocument(resp.URL, resp.Body)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("parse %s: %w", resp.URL, err)
	}

	return pipeline.Done(doc), nil
}

// ParseDocument parses HTML content fetched from pageURL into a Document.
//
// Design decision: We use golang.org/x/net/html rather than regex because it
// correctly handles the malformed HTML common on the web and provides a
// proper DOM-like structure.
func ParseDocument(pageURL string, content []byte) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	doc := &Document{
		URL:   pageURL,
		Root:  root,
		Links: make([]Link, 0),
		Forms: make([]Form, 0),
		Meta:  make(map[string]string),
	}

	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "form" {
				doc.Forms = append(doc.Forms, extractForm(n, base))
			} else {
				processElement(n, base, doc)
			}
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)

	doc.Text = strings.Join(strings.Fields(text.String()), " ")
	return doc, nil
}

// processElement handles non-form HTML element nodes.
func processElement(n *html.Node, base *url.URL, doc *Document) {
	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			doc.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		if href := getAttr(n, "href"); href != "" {
			resolved := resolveURL(base, href)
			if resolved != "" {
				doc.Links = append(doc.Links, Link{
					Text: nodeText(n),
					URL:  resolved,
				})
			}
		}

	case "meta":
		name := getAttr(n, "name")
		if name == "" {
			name = getAttr(n, "property") // OpenGraph uses property
		}
		content := getAttr(n, "content")
		if name != "" && content != "" {
			doc.Meta[name] = content
		}
	}
}

// extractForm builds a Form from a <form> subtree.
func extractForm(n *html.Node, base *url.URL) Form {
	form := Form{
		Name:   getAttr(n, "name"),
		ID:     getAttr(n, "id"),
		Action: resolveURL(base, getAttr(n, "action")),
		Method: strings.ToUpper(getAttr(n, "method")),
		Fields: make([]FormField, 0),
	}
	if form.Method == "" {
		form.Method = "GET"
	}
	if form.Action == "" {
		// A form without an action submits back to the current page.
		form.Action = base.String()
	}
	extractFormFields(n, &form)
	return form
}

// extractFormFields recursively extracts fields from a form element.
func extractFormFields(n *html.Node, form *Form) {
	if n.Type == html.ElementNode && (n.Data == htmlElementInput || n.Data == htmlElementSelect || n.Data == htmlElementTextarea) {
		field := FormField{
			Name:  getAttr(n, "name"),
			Type:  getAttr(n, "type"),
			Value: getAttr(n, "value"),
		}
		if field.Type == "" {
			switch n.Data {
			case htmlElementTextarea:
				field.Type = htmlElementTextarea
			case htmlElementSelect:
				field.Type = htmlElementSelect
			default:
				field.Type = "text"
			}
		}
		if field.Name != "" {
			form.Fields = append(form.Fields, field)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractFormFields(c, form)
	}
}

// resolveURL resolves a relative URL against the document's base URL.
// Non-navigable schemes (javascript:, mailto:, etc.) resolve to "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(u).String()
}

// nodeText returns the trimmed text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
