package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/webpilot/internal/pipeline"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Login - Example</title>
  <meta name="generator" content="examplecms 2.1">
  <meta property="og:site_name" content="Example">
</head>
<body>
  <p>Welcome back. Build 20260815.</p>
  <a href="/home">Home</a>
  <a href="https://other.test/about">About us</a>
  <a href="mailto:admin@example.test">Mail</a>
  <form name="login" id="login-form" action="/session" method="post">
    <input type="hidden" name="csrf" value="tok-123">
    <input type="text" name="username">
    <input type="password" name="password">
    <input type="submit" value="Sign in">
  </form>
</body>
</html>`

// TestParseDocument tests HTML extraction and URL resolution.
func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument("http://example.test/login", []byte(samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("extracts the title", func(t *testing.T) {
		t.Parallel()

		if doc.Title != "Login - Example" {
			t.Errorf("got %q, expected %q", doc.Title, "Login - Example")
		}
	})

	t.Run("resolves relative links and drops non-navigable schemes", func(t *testing.T) {
		t.Parallel()

		if len(doc.Links) != 2 {
			t.Fatalf("got %d links, expected 2: %+v", len(doc.Links), doc.Links)
		}
		if doc.Links[0].URL != "http://example.test/home" {
			t.Errorf("got %q, expected resolved /home", doc.Links[0].URL)
		}
		if doc.Links[0].Text != "Home" {
			t.Errorf("got %q, expected %q", doc.Links[0].Text, "Home")
		}
		if doc.Links[1].URL != "https://other.test/about" {
			t.Errorf("got %q, expected absolute link kept", doc.Links[1].URL)
		}
	})

	t.Run("extracts forms with fields and defaults", func(t *testing.T) {
		t.Parallel()

		if len(doc.Forms) != 1 {
			t.Fatalf("got %d forms, expected 1", len(doc.Forms))
		}
		form := doc.Forms[0]
		if form.Name != "login" || form.ID != "login-form" {
			t.Errorf("form identity: got %q/%q", form.Name, form.ID)
		}
		if form.Action != "http://example.test/session" {
			t.Errorf("got action %q, expected resolved /session", form.Action)
		}
		if form.Method != "POST" {
			t.Errorf("got method %q, expected POST", form.Method)
		}
		if len(form.Fields) != 3 {
			t.Fatalf("got %d fields, expected 3 (unnamed submit dropped): %+v", len(form.Fields), form.Fields)
		}
		if form.Fields[0].Name != "csrf" || form.Fields[0].Value != "tok-123" {
			t.Errorf("hidden field default lost: %+v", form.Fields[0])
		}
	})

	t.Run("extracts meta tags including OpenGraph properties", func(t *testing.T) {
		t.Parallel()

		if doc.Meta["generator"] != "examplecms 2.1" {
			t.Errorf("got %q, expected generator meta", doc.Meta["generator"])
		}
		if doc.Meta["og:site_name"] != "Example" {
			t.Errorf("got %q, expected og:site_name meta", doc.Meta["og:site_name"])
		}
	})

	t.Run("collects visible text", func(t *testing.T) {
		t.Parallel()

		if doc.Text == "" {
			t.Fatal("expected non-empty text")
		}
	})
}

// TestParseStep tests the Parse step's previous-result contract.
func TestParseStep(t *testing.T) {
	t.Parallel()

	t.Run("parses the previous response", func(t *testing.T) {
		t.Parallel()

		resp := &Response{URL: "http://example.test/login", Body: []byte(samplePage)}
		session := pipeline.NewSession()
		prev := &pipeline.StepRecord{Name: "fetch", Result: resp}

		step := NewParse("parse")
		outcome, err := pipeline.Run(context.Background(), session, step, prev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc, ok := outcome.Value().(*Document)
		if !ok {
			t.Fatalf("got %T, expected *Document", outcome.Value())
		}
		if doc.Title != "Login - Example" {
			t.Errorf("got %q, expected parsed title", doc.Title)
		}
	})

	t.Run("fails explicitly without a previous result", func(t *testing.T) {
		t.Parallel()

		step := NewParse("parse")
		_, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, &pipeline.StepRecord{})
		if !errors.Is(err, pipeline.ErrNoPreviousResult) {
			t.Errorf("got %v, expected ErrNoPreviousResult", err)
		}
	})

	t.Run("fails on a non-response previous result", func(t *testing.T) {
		t.Parallel()

		step := NewParse("parse")
		prev := &pipeline.StepRecord{Name: "other", Result: 42}
		_, err := pipeline.Run(context.Background(), pipeline.NewSession(), step, prev)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("got %v, expected ErrInvalidConfig", err)
		}
	})
}
