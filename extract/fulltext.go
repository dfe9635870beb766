// Package extract converts rendered page HTML into text for LLM
// consumption: a full structural rendering that keeps links, images and
// tables in markdown form, a readability mode that strips boilerplate
// first, and a markdown mode for callers that want the page as-is.
package extract

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Precompiled once; FullText runs on every uncached fetch.
var (
	stripSel  = cascadia.MustCompile("script, style, nav, footer, header, noscript, svg")
	tableSel  = cascadia.MustCompile("table")
	anchorSel = cascadia.MustCompile("a")
	imageSel  = cascadia.MustCompile("img")
)

// Tags that force a line break in the flattened output. marginTags
// additionally get a blank line around them, the way a browser renders
// paragraph margins.
var (
	blockTags = map[string]bool{
		"address": true, "article": true, "aside": true, "div": true,
		"dd": true, "dl": true, "dt": true, "fieldset": true,
		"figcaption": true, "form": true, "hr": true, "li": true,
		"main": true, "ol": true, "section": true, "tr": true,
		"ul": true,
	}
	marginTags = map[string]bool{
		"blockquote": true, "figure": true, "h1": true, "h2": true,
		"h3": true, "h4": true, "h5": true, "h6": true, "p": true,
		"pre": true, "table": true,
	}
)

// FullText renders rawHTML as plain text while keeping document
// structure an LLM can use: tables become pipe-delimited markdown,
// anchors become [text](url), images become ![alt](url), with URLs
// resolved against baseURL. Script, style, nav, footer, header,
// noscript and svg subtrees are dropped entirely.
func FullText(rawHTML, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	doc.FindMatcher(stripSel).Remove()

	doc.FindMatcher(tableSel).Each(func(_ int, table *goquery.Selection) {
		md := tableToMarkdown(table)
		if md == "" {
			table.Remove()
			return
		}
		// A pre wrapper keeps the markdown's line structure intact
		// through inline whitespace collapsing.
		pre := &html.Node{Type: html.ElementNode, Data: "pre", DataAtom: atom.Pre}
		pre.AppendChild(&html.Node{Type: html.TextNode, Data: md})
		table.ReplaceWithNodes(pre)
	})

	doc.FindMatcher(anchorSel).Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		text := strings.TrimSpace(a.Text())
		switch {
		case href != "" && text != "":
			a.ReplaceWithNodes(textNode("[" + text + "](" + resolveURL(base, href) + ")"))
		case text != "":
			a.ReplaceWithNodes(textNode(text))
		}
		// Anchors with no visible text are left in place so any
		// nested images still get converted below.
	})

	doc.FindMatcher(imageSel).Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src == "" {
			src = srcsetFirst(img.AttrOr("srcset", ""))
		}
		if src == "" {
			img.Remove()
			return
		}
		alt := img.AttrOr("alt", "")
		img.ReplaceWithNodes(textNode("![" + alt + "](" + resolveURL(base, src) + ")"))
	})

	var sb strings.Builder
	for _, root := range doc.Nodes {
		flatten(root, &sb, false)
	}
	return collapseBlankLines(sb.String())
}

// tableToMarkdown renders a table as a pipe-delimited markdown table:
// first row as header, a --- separator, column counts normalized, and
// literal pipes escaped.
func tableToMarkdown(table *goquery.Selection) string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return ""
	}

	maxCols := 0
	for _, r := range rows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < maxCols {
			r = append(r, "")
		}
		rows[i] = r
	}

	var lines []string
	lines = append(lines, "| "+strings.Join(rows[0], " | ")+" |")
	sep := make([]string, maxCols)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, row := range rows[1:] {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// resolveURL makes ref absolute against base, falling back to the raw
// ref when either side does not parse.
func resolveURL(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// srcsetFirst extracts the URL of the first candidate in a srcset list.
func srcsetFirst(srcset string) string {
	if srcset == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	if first == "" {
		return ""
	}
	return strings.Fields(first)[0]
}

// flatten walks the node tree writing text content, with newlines at
// block boundaries and blank lines around margin elements. Inside pre
// elements whitespace is preserved verbatim.
func flatten(n *html.Node, sb *strings.Builder, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			sb.WriteString(n.Data)
		} else {
			sb.WriteString(collapseSpace(n.Data))
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "head", "title":
			return
		case "br":
			sb.WriteString("\n")
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	isBlock := n.Type == html.ElementNode && blockTags[n.Data]
	isMargin := n.Type == html.ElementNode && marginTags[n.Data]
	if isMargin {
		ensureNewlines(sb, 2)
	} else if isBlock {
		ensureNewlines(sb, 1)
	}

	inPre := pre || (n.Type == html.ElementNode && n.Data == "pre")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(c, sb, inPre)
	}

	if isMargin {
		ensureNewlines(sb, 2)
	} else if isBlock {
		ensureNewlines(sb, 1)
	}
}

// ensureNewlines appends newlines until the builder ends with n of
// them. A builder with no content yet stays empty.
func ensureNewlines(sb *strings.Builder, n int) {
	s := sb.String()
	if s == "" {
		return
	}
	have := 0
	for have < n && have < len(s) && s[len(s)-1-have] == '\n' {
		have++
	}
	for ; have < n; have++ {
		sb.WriteByte('\n')
	}
}

// collapseSpace reduces whitespace runs to single spaces, keeping one
// leading/trailing space so inline elements stay separated.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if first, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(first) {
		out = " " + out
	}
	if last, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(last) {
		out += " "
	}
	return out
}

// collapseBlankLines trims trailing space per line and reduces runs of
// 3+ blank lines down to at most 2.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks <= 2 {
				cleaned = append(cleaned, "")
			}
			continue
		}
		blanks = 0
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
