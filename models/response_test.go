package models

import (
	"strings"
	"testing"
)

func TestRenderTextNoHeader(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 200}
	got := r.RenderText("https://example.com", "body text", DefaultMaxChars)
	if got != "body text" {
		t.Errorf("got %q, want bare body", got)
	}
}

func TestRenderTextFullHeader(t *testing.T) {
	r := &PageResult{
		URL:    "https://example.com/final",
		Status: 404,
		Title:  "Not Found",
	}
	got := r.RenderText("https://example.com/start", "body", DefaultMaxChars)
	want := "Title: Not Found\nRedirected to: https://example.com/final\nHTTP 404\n\nbody"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTextTitleOnly(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 200, Title: "Home"}
	got := r.RenderText("https://example.com", "body", DefaultMaxChars)
	want := "Title: Home\n\nbody"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTextStatusBelow400Hidden(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 399}
	got := r.RenderText("https://example.com", "body", DefaultMaxChars)
	if strings.Contains(got, "HTTP") {
		t.Errorf("status < 400 must not appear in header, got %q", got)
	}
}

func TestRenderTextTruncation(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 200}
	body := strings.Repeat("a", 100)
	got := r.RenderText("https://example.com", body, 50)

	want := strings.Repeat("a", 50) + "\n\n[Truncated — 100 total characters, showing first 50]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTextTruncatesOnRuneBoundary(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 200}
	body := strings.Repeat("é", 60)
	got := r.RenderText("https://example.com", body, 50)

	if !strings.HasPrefix(got, strings.Repeat("é", 50)) {
		t.Error("truncation split a multi-byte rune")
	}
	if !strings.HasSuffix(got, "[Truncated — 60 total characters, showing first 50]") {
		t.Errorf("marker counts runes, not bytes: %q", got)
	}
}

func TestRenderTextAtExactLimitUnchanged(t *testing.T) {
	r := &PageResult{URL: "https://example.com", Status: 200}
	body := strings.Repeat("a", 50)
	if got := r.RenderText("https://example.com", body, 50); got != body {
		t.Errorf("text at the limit must not be truncated, got %q", got)
	}
}

func TestPageResultSizeBytes(t *testing.T) {
	r := &PageResult{HTML: "héllo"}
	if got := r.SizeBytes(); got != 6 {
		t.Errorf("SizeBytes = %d, want UTF-8 byte length 6", got)
	}
}
