package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum extracted text length (in characters)
// for readability output to be considered valid. Below this threshold
// we assume the algorithm failed to locate the main content and fall
// back to the full rendering.
const minContentLength = 50

// Article returns the readability-cleaned HTML fragment for rawHTML.
// ok is false when the base URL is invalid, extraction fails, or the
// extracted text falls below minContentLength; callers should then use
// the full document instead.
func Article(rawHTML, baseURL string) (fragment string, ok bool) {
	parsedURL, err := nurl.Parse(baseURL)
	if err != nil {
		slog.Warn("readability: invalid base URL, using full rendering",
			"url", baseURL, "error", err,
		)
		return "", false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, using full rendering",
			"url", baseURL, "error", err,
		)
		return "", false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("readability: extracted content too short, using full rendering",
			"url", baseURL, "length", len(article.TextContent),
		)
		return "", false
	}

	return article.Content, true
}

// Readable extracts the main article content from rawHTML, then renders
// the cleaned fragment through FullText so links, tables and images
// survive in textual form.
//
// Fallback behaviour (a fetch must never fail just because readability
// choked): invalid base URL, extraction error, or too-little extracted
// content all fall back to FullText on the whole document.
func Readable(rawHTML, baseURL string) string {
	if fragment, ok := Article(rawHTML, baseURL); ok {
		return FullText(fragment, baseURL)
	}
	return FullText(rawHTML, baseURL)
}
