package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/models"
)

// fatalNavSubstrings mark navigation failures that no retry can fix.
// net::ERR_ABORTED is how Chromium reports a navigation that turned
// into a (denied) download.
var fatalNavSubstrings = []string{
	"ERR_NAME_NOT_RESOLVED",
	"ERR_CONNECTION_REFUSED",
	"ERR_EMPTY_RESPONSE",
	"net::ERR_ABORTED",
}

// navigate drives the two-tier page load: a network-idle attempt at the
// standard timeout first, then on a retryable failure a longer attempt
// that settles for DOM readiness. Fatal errors skip the retry.
func navigate(ctx context.Context, page *rod.Page, url string, cfg config.FetchConfig) error {
	err := navigateNetworkIdle(ctx, page, url, cfg.NavTimeout)
	if err == nil {
		return nil
	}
	if isFatalNavError(err) {
		return classifyNavError(err, url)
	}
	slog.Debug("network-idle attempt failed, retrying with DOM-ready wait",
		"url", url,
		"error", err,
	)
	if err := navigateDOMReady(ctx, page, url, cfg.NavRetryTimeout); err != nil {
		return classifyNavError(err, url)
	}
	return nil
}

func navigateNetworkIdle(ctx context.Context, page *rod.Page, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(navCtx)

	// The idle waiter must be armed before Navigate; set up after, it
	// misses in-flight requests and returns instantly (false idle).
	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return err
	}
	waitIdle()
	return navCtx.Err()
}

func navigateDOMReady(ctx context.Context, page *rod.Page, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return err
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	return nil
}

func isFatalNavError(err error) bool {
	msg := err.Error()
	for _, s := range fatalNavSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// classifyNavError maps a raw navigation failure to a FetchError whose
// Message is the text callers show verbatim.
func classifyNavError(err error, url string) *models.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewFetchError(models.ErrCodeNavTimeout,
			fmt.Sprintf("Page load timed out for URL: %s", url), err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ERR_NAME_NOT_RESOLVED"):
		return models.NewFetchError(models.ErrCodeDNSFailure,
			fmt.Sprintf("Could not resolve domain for URL: %s", url), err)
	case strings.Contains(msg, "ERR_CONNECTION_REFUSED"):
		return models.NewFetchError(models.ErrCodeConnectionRefused,
			fmt.Sprintf("Connection refused for URL: %s", url), err)
	case strings.Contains(msg, "ERR_EMPTY_RESPONSE"):
		return models.NewFetchError(models.ErrCodeEmptyResponse,
			fmt.Sprintf("Server returned an empty response for URL: %s", url), err)
	case strings.Contains(msg, "net::ERR_ABORTED"):
		return models.NewFetchError(models.ErrCodeDownloadRejected,
			fmt.Sprintf("URL points to a downloadable file, not a web page: %s", url), err)
	default:
		return models.NewFetchError(models.ErrCodeLoadFailed,
			fmt.Sprintf("Failed to load URL: %s (%s)", url, msg), err)
	}
}

// pageStatus reads the HTTP status of the main navigation from the
// Performance API, which needs no CDP network listeners. Returns 0 when
// no navigation entry is available.
func pageStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors (useful for optional metadata).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
