package extract

import (
	"strings"
	"testing"
)

// longArticle is comfortably above readability's content thresholds so
// extraction succeeds deterministically.
var longArticle = strings.Repeat(
	"<p>This is the main article content that should be extracted. "+
		"It explains the subject at length, sentence after sentence, "+
		"so the scoring pass has enough commas and characters to work with.</p>\n", 8)

func TestReadable_FallsBackOnShortContent(t *testing.T) {
	// Too little content for readability; the full rendering must
	// still carry the visible text.
	html := "<p>Simple paragraph</p>"
	text := Readable(html, "https://example.com/post")
	if !strings.Contains(text, "Simple paragraph") {
		t.Errorf("fallback output missing visible text: %q", text)
	}
}

func TestReadable_FallsBackOnEmptyInput(t *testing.T) {
	if got := Readable("", "https://example.com"); got != "" {
		t.Errorf("Readable(\"\") = %q, want empty", got)
	}
}

func TestReadable_ExtractsArticle(t *testing.T) {
	html := `<html><body>
<nav>Navigation links</nav>
<article>` + longArticle + `</article>
<aside class="sidebar">Sidebar ads</aside>
<footer>Copyright 2024</footer>
</body></html>`

	text := Readable(html, "https://example.com/post")
	if !strings.Contains(text, "main article content") {
		t.Errorf("article body missing: %q", text)
	}
	for _, gone := range []string{"Navigation links", "Copyright 2024", "Sidebar ads"} {
		if strings.Contains(text, gone) {
			t.Errorf("boilerplate %q survived extraction: %q", gone, text)
		}
	}
}

func TestReadable_KeepsLinksTextually(t *testing.T) {
	html := `<html><body><article>` + longArticle +
		`<p>Read the <a href="/docs">documentation</a> for details.</p></article></body></html>`

	text := Readable(html, "https://example.com/post")
	if !strings.Contains(text, "[documentation](https://example.com/docs)") {
		t.Errorf("link should survive readable mode as markdown: %q", text)
	}
}

func TestReadable_InvalidBaseURL(t *testing.T) {
	// Control characters make url.Parse fail; output still renders.
	text := Readable("<p>Hello world</p>", "http://bad\x7f.example.com/")
	if !strings.Contains(text, "Hello world") {
		t.Errorf("invalid base URL should still produce output: %q", text)
	}
}
