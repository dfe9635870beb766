package models

import (
	"fmt"
	"unicode/utf8"
)

// PageResult is the raw outcome of one browser fetch: the rendered HTML
// plus the page identity observed after redirects. Cached as-is; the
// extraction pipeline derives text from it per request.
type PageResult struct {
	// HTML is the fully rendered page markup.
	HTML string `json:"html"`

	// URL is the final URL after following all redirects.
	URL string `json:"url"`

	// Status is the HTTP status of the main document, 0 when the
	// browser did not expose a response.
	Status int `json:"status"`

	// Title is the document title, possibly empty.
	Title string `json:"title"`
}

// SizeBytes reports the UTF-8 length of the HTML body, the unit the
// result cache budgets by.
func (r *PageResult) SizeBytes() int {
	return len(r.HTML)
}

// RenderText builds the caller-facing text block from extracted body
// text: an optional metadata header, then the body, hard-truncated at
// maxChars with a marker carrying the true total length.
func (r *PageResult) RenderText(requestedURL, body string, maxChars int) string {
	text := body
	var header string
	if r.Title != "" {
		header = "Title: " + r.Title
	}
	if r.URL != requestedURL {
		if header != "" {
			header += "\n"
		}
		header += "Redirected to: " + r.URL
	}
	if r.Status >= 400 {
		if header != "" {
			header += "\n"
		}
		header += fmt.Sprintf("HTTP %d", r.Status)
	}
	if header != "" {
		text = header + "\n\n" + text
	}
	if total := utf8.RuneCountInString(text); total > maxChars {
		runes := []rune(text)
		text = string(runes[:maxChars]) + fmt.Sprintf("\n\n[Truncated — %d total characters, showing first %d]", total, maxChars)
	}
	return text
}

// FetchResponse is the response for POST /api/v1/fetch.
type FetchResponse struct {
	// URL echoes the requested URL.
	URL string `json:"url"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP status code from the fetched page.
	StatusCode int `json:"status_code"`

	// Title is the document title, possibly empty.
	Title string `json:"title"`

	// Content is the extracted output in the requested format,
	// including the metadata header and any truncation marker.
	Content string `json:"content"`

	// CacheHit indicates whether the page came from the result cache.
	CacheHit bool `json:"cache_hit"`

	// ElapsedMs is the end-to-end duration in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// Error is populated only on failure responses.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" or "degraded"
	Uptime       string `json:"uptime"`
	Browser      string `json:"browser"` // "running" or "idle"
	CacheEntries int    `json:"cache_entries"`
	CacheBytes   int    `json:"cache_bytes"`
	Version      string `json:"version"`
}
