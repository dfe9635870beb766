package extract

import (
	"strings"
	"testing"
)

func TestFullText_StripsScripts(t *testing.T) {
	html := "<p>Hello</p><script>alert(1)</script>"
	text := FullText(html, "")
	if strings.Contains(text, "alert") {
		t.Errorf("script content leaked into output: %q", text)
	}
	if !strings.Contains(text, "Hello") {
		t.Errorf("visible text missing from output: %q", text)
	}
}

func TestFullText_StripsStyles(t *testing.T) {
	html := "<p>Hello</p><style>body{color:red}</style>"
	if text := FullText(html, ""); strings.Contains(text, "color") {
		t.Errorf("style content leaked into output: %q", text)
	}
}

func TestFullText_StripsChromeElements(t *testing.T) {
	html := "<nav>Menu</nav><main><p>Content</p></main><footer>Footer</footer><noscript>NS</noscript><svg><text>vector</text></svg>"
	text := FullText(html, "")
	for _, gone := range []string{"Menu", "Footer", "NS", "vector"} {
		if strings.Contains(text, gone) {
			t.Errorf("%q should have been stripped, output: %q", gone, text)
		}
	}
	if !strings.Contains(text, "Content") {
		t.Errorf("main content missing from output: %q", text)
	}
}

func TestFullText_LinksToMarkdown(t *testing.T) {
	html := `<p>See <a href="/p">T</a> now</p>`
	text := FullText(html, "https://x.com")
	if !strings.Contains(text, "[T](https://x.com/p)") {
		t.Errorf("link not converted, output: %q", text)
	}
}

func TestFullText_LinkWithoutBaseURL(t *testing.T) {
	text := FullText(`<a href="/page">Click here</a>`, "")
	if !strings.Contains(text, "[Click here](/page)") {
		t.Errorf("relative link should survive without base, output: %q", text)
	}
}

func TestFullText_LinkWithoutHref(t *testing.T) {
	text := FullText(`<p><a>Bare text</a></p>`, "https://x.com")
	if !strings.Contains(text, "Bare text") {
		t.Errorf("anchor text missing: %q", text)
	}
	if strings.Contains(text, "](") {
		t.Errorf("anchor without href should not become a link: %q", text)
	}
}

func TestFullText_LinkWithoutTextKeepsNestedImage(t *testing.T) {
	html := `<a href="/x"><img src="/i.png" alt="A"></a>`
	text := FullText(html, "https://x.com")
	if !strings.Contains(text, "![A](https://x.com/i.png)") {
		t.Errorf("image inside textless anchor should convert: %q", text)
	}
}

func TestFullText_ImageSourcePriority(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"src", `<img src="/img.png" alt="Photo">`, "![Photo](https://example.com/img.png)"},
		{"data-src", `<img data-src="/lazy.png" alt="L">`, "![L](https://example.com/lazy.png)"},
		{"srcset first", `<img srcset="/a.png 1x, /b.png 2x" alt="S">`, "![S](https://example.com/a.png)"},
		{"absolute kept", `<img src="https://cdn.example.org/c.png" alt="C">`, "![C](https://cdn.example.org/c.png)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FullText(tt.html, "https://example.com")
			if !strings.Contains(text, tt.want) {
				t.Errorf("FullText(%q) = %q, want substring %q", tt.html, text, tt.want)
			}
		})
	}
}

func TestFullText_ImageWithoutSourceDropped(t *testing.T) {
	text := FullText(`<p>before</p><img alt="nothing"><p>after</p>`, "https://x.com")
	if strings.Contains(text, "!") || strings.Contains(text, "nothing") {
		t.Errorf("sourceless image should be dropped: %q", text)
	}
}

func TestFullText_TableToMarkdown(t *testing.T) {
	html := "<table><tr><th>Name</th><th>Age</th></tr><tr><td>Alice</td><td>30</td></tr></table>"
	text := FullText(html, "")
	for _, line := range []string{"| Name | Age |", "| --- | --- |", "| Alice | 30 |"} {
		if !strings.Contains(text, line) {
			t.Errorf("table output missing %q, got: %q", line, text)
		}
	}
}

func TestFullText_TableNormalizesColumns(t *testing.T) {
	html := "<table><tr><td>A</td><td>B</td><td>C</td></tr><tr><td>D</td></tr></table>"
	text := FullText(html, "")
	if !strings.Contains(text, "| D |  |  |") {
		t.Errorf("short row should be padded to the widest row: %q", text)
	}
}

func TestFullText_TableEscapesPipes(t *testing.T) {
	html := "<table><tr><td>a|b</td></tr></table>"
	text := FullText(html, "")
	if !strings.Contains(text, `a\|b`) {
		t.Errorf("literal pipe should be escaped: %q", text)
	}
}

func TestFullText_CollapsesBlankLines(t *testing.T) {
	html := "<p>A</p>" + strings.Repeat("<br>", 10) + "<p>B</p>"
	text := FullText(html, "")
	if strings.Contains(text, "\n\n\n\n") {
		t.Errorf("more than two consecutive blank lines survived: %q", text)
	}
	if text != "A\n\n\nB" {
		t.Errorf("FullText = %q, want %q", text, "A\n\n\nB")
	}
}

func TestFullText_EmptyInput(t *testing.T) {
	if got := FullText("", ""); got != "" {
		t.Errorf("FullText(\"\") = %q, want empty", got)
	}
}

func TestFullText_PlainTextPassthrough(t *testing.T) {
	if text := FullText("Just plain text", ""); !strings.Contains(text, "Just plain text") {
		t.Errorf("plain text should pass through: %q", text)
	}
}

func TestSrcsetFirst(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/a.png 1x, /b.png 2x", "/a.png"},
		{"  /only.png  ", "/only.png"},
		{"/w.png 640w", "/w.png"},
	}
	for _, tt := range tests {
		if got := srcsetFirst(tt.in); got != tt.want {
			t.Errorf("srcsetFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", " "},
		{"a  b\n\tc", "a b c"},
		{" padded ", " padded "},
	}
	for _, tt := range tests {
		if got := collapseSpace(tt.in); got != tt.want {
			t.Errorf("collapseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
