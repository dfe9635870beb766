package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/browserfetch/cache"
	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/metrics"
	"github.com/use-agent/browserfetch/models"
	"github.com/use-agent/browserfetch/urlguard"
)

// Fetcher ties the SSRF guard, the HEAD precheck, the shared browser
// session, and the page cache into the two public operations: Fetch
// and Screenshot. Safe for concurrent use.
type Fetcher struct {
	session  *Session
	cache    *cache.Cache
	precheck *headPrecheck
	metrics  *metrics.Metrics
	cfg      config.FetchConfig
}

// New assembles a Fetcher. m may be nil to disable metrics recording.
func New(session *Session, pageCache *cache.Cache, m *metrics.Metrics, cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		session:  session,
		cache:    pageCache,
		precheck: newHeadPrecheck(cfg.PrecheckTimeout),
		metrics:  m,
		cfg:      cfg,
	}
}

// Result is one fetch outcome before rendering: the raw page plus
// whether it came from the cache.
type Result struct {
	Page     *models.PageResult
	CacheHit bool
}

// Fetch retrieves the fully rendered page for req.URL.
//
// Lifecycle of a fetch:
//
//  1. Guard       – scheme/hostname/private-range screening
//  2. Precheck    – HEAD probe rejects non-page content types
//  3. Cache       – fresh entries skip the browser entirely
//  4. Slot        – bounded admission to the shared browser
//  5. Page        – fresh incognito context with stealth identity
//  6. Navigate    – network-idle attempt, DOM-ready fallback
//  7. Re-validate – redirect targets get the same SSRF screening
//  8. Condition   – cookie consent, render wait, lazy-load scroll
//  9. Extract     – rendered HTML + title
//  10. Cache store – result kept for the TTL window
func (f *Fetcher) Fetch(ctx context.Context, req models.FetchRequest) (*Result, error) {
	start := time.Now()
	res, err := f.fetch(ctx, req)
	if f.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = errOutcome(err)
		}
		f.metrics.RecordFetch(outcome, time.Since(start).Seconds())
	}
	return res, err
}

func (f *Fetcher) fetch(ctx context.Context, req models.FetchRequest) (*Result, error) {
	req.Defaults()

	// ── 1. SSRF guard ────────────────────────────────────────────────
	if err := urlguard.Validate(ctx, req.URL); err != nil {
		return nil, err
	}

	// ── 2. Content-type precheck ─────────────────────────────────────
	if outcome, err := f.precheck.Check(ctx, req.URL); outcome == PrecheckRejected {
		return nil, err
	}

	// ── 3. Cache lookup ──────────────────────────────────────────────
	if page, hit := f.cache.Get(req.URL); hit {
		slog.Debug("cache hit", "url", req.URL)
		if f.metrics != nil {
			f.metrics.CacheHits.Inc()
		}
		return &Result{Page: page, CacheHit: true}, nil
	}
	if f.metrics != nil {
		f.metrics.CacheMisses.Inc()
	}

	// ── 4. Admission slot ────────────────────────────────────────────
	release, err := f.session.Acquire(ctx)
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal,
			"request ended while waiting for a browser slot", err)
	}
	defer release()
	if f.metrics != nil {
		f.metrics.PagesInFlight.Inc()
		defer f.metrics.PagesInFlight.Dec()
	}

	// ── 5. Fresh incognito page ──────────────────────────────────────
	page, cleanup, err := f.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// ── 6. Navigate (two-tier) ───────────────────────────────────────
	if err := navigate(ctx, page, req.URL, f.cfg); err != nil {
		return nil, err
	}

	// ── 7. Status + final URL; re-validate redirect targets ──────────
	p := page.Context(ctx)
	status := pageStatus(p)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}
	if finalURL != req.URL {
		if guardErr := urlguard.Validate(ctx, finalURL); guardErr != nil {
			return nil, guardErr
		}
	}

	// ── 8. Condition: consent, render wait, lazy-load scroll ─────────
	banner := dismissCookieBanner(ctx, page)
	slog.Debug("cookie banner pass",
		"url", req.URL,
		"outcome", banner,
	)
	if wait := *req.Wait; wait > 0 {
		sleepCtx(ctx, time.Duration(wait*float64(time.Second)))
	}
	if *req.Scroll {
		autoScroll(ctx, page)
	}

	// ── 9. Extract rendered HTML + title ─────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal,
			fmt.Sprintf("failed to extract page HTML for %s", req.URL), htmlErr)
	}
	title := evalStringOrEmpty(p, `() => document.title`)

	result := &models.PageResult{
		HTML:   rawHTML,
		URL:    finalURL,
		Status: status,
		Title:  title,
	}

	// ── 10. Cache store ──────────────────────────────────────────────
	f.cache.Put(req.URL, result)
	if f.metrics != nil {
		entries, bytes := f.cache.Stats()
		f.metrics.RecordCache(entries, bytes)
	}

	slog.Info("page fetched",
		"url", req.URL,
		"finalURL", finalURL,
		"status", status,
		"htmlBytes", len(rawHTML),
	)
	return &Result{Page: result}, nil
}

// CacheStats exposes the page cache counters for health reporting.
func (f *Fetcher) CacheStats() (entries, bytes int) {
	return f.cache.Stats()
}

// BrowserStarted reports whether the shared browser is running.
func (f *Fetcher) BrowserStarted() bool {
	return f.session.Started()
}

// Uptime reports how long the session has existed.
func (f *Fetcher) Uptime() time.Duration {
	return f.session.Uptime()
}

// errOutcome labels a failure for metrics by its error code.
func errOutcome(err error) string {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return models.ErrCodeInternal
}
