package models

// Character and wait bounds enforced on every fetch request.
const (
	DefaultMaxChars = 40000
	MaxCharsLimit   = 500000
	DefaultWait     = 2.0
	MaxWait         = 30.0
)

// NormalizeMaxChars caps the character budget. Values <= 0 or above
// MaxCharsLimit request the cap itself.
func NormalizeMaxChars(n int) int {
	if n <= 0 || n > MaxCharsLimit {
		return MaxCharsLimit
	}
	return n
}

// ClampWait bounds the post-load settle wait to [0, MaxWait] seconds.
func ClampWait(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > MaxWait {
		return MaxWait
	}
	return w
}

// FetchRequest is the payload for POST /api/v1/fetch and the argument
// set of the fetch tool.
type FetchRequest struct {
	// URL is the target page to fetch. Required.
	URL string `json:"url" binding:"required,url"`

	// Wait is the number of seconds to wait after page load for JS
	// rendering. Clamped to [0, 30]. Default: 2.0.
	Wait *float64 `json:"wait,omitempty"`

	// Scroll auto-scrolls the page to trigger lazy-loaded content.
	// Default: true.
	Scroll *bool `json:"scroll,omitempty"`

	// MaxChars is the maximum number of characters to return.
	// Values <= 0 or above 500000 mean "use the 500000 cap".
	// Default: 40000.
	MaxChars *int `json:"max_chars,omitempty"`

	// Readability extracts only the main article content, removing
	// boilerplate. Set to false for homepages or index pages where
	// everything should be kept. Default: true.
	Readability *bool `json:"readability,omitempty"`

	// Format controls the response body format.
	// Allowed: "text" (default), "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown"`
}

// Defaults applies default values to unset fields and clamps the rest.
func (r *FetchRequest) Defaults() {
	if r.Wait == nil {
		w := DefaultWait
		r.Wait = &w
	}
	*r.Wait = ClampWait(*r.Wait)
	if r.Scroll == nil {
		t := true
		r.Scroll = &t
	}
	if r.MaxChars == nil {
		n := DefaultMaxChars
		r.MaxChars = &n
	}
	*r.MaxChars = NormalizeMaxChars(*r.MaxChars)
	if r.Readability == nil {
		t := true
		r.Readability = &t
	}
	if r.Format == "" {
		r.Format = "text"
	}
}

// ScreenshotRequest is the payload for POST /api/v1/screenshot and the
// argument set of the screenshot tool.
type ScreenshotRequest struct {
	// URL is the target page to capture. Required.
	URL string `json:"url" binding:"required,url"`

	// FullPage captures the full scrollable page instead of just the
	// viewport. Default: false.
	FullPage bool `json:"full_page,omitempty"`
}
