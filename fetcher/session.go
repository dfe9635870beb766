// Package fetcher drives a shared headless browser through SSRF-guarded
// page loads: one lazily started browser process, a bounded admission
// gate, and a fresh isolated browsing context per request.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"

	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/models"
)

// Session owns the process-wide browser and the request slot gate.
// The browser launches lazily on first use; Shutdown is idempotent and
// safe to call even when the browser never started. Safe for
// concurrent use.
type Session struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	sem       *semaphore.Weighted
	cfg       config.BrowserConfig
	closed    bool
	startTime time.Time
}

// NewSession prepares a Session without launching anything.
func NewSession(cfg config.BrowserConfig) *Session {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Session{
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Acquire blocks until a request slot frees, honoring ctx cancellation.
// The returned release function must be called exactly once, usually
// via defer, regardless of how the request ends.
func (s *Session) Acquire(ctx context.Context) (release func(), err error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(1) }, nil
}

// Browser returns the shared browser handle, launching it on first use.
// The launch is serialized so concurrent first requests cannot race to
// start duplicate processes.
func (s *Session) Browser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, models.NewFetchError(models.ErrCodeInternal, "browser session is shut down", nil)
	}
	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)
	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, models.NewFetchError(models.ErrCodeInternal, "failed to connect to browser", err)
	}

	slog.Info("browser launched", "controlURL", controlURL, "noSandbox", s.cfg.NoSandbox)
	s.launcher = l
	s.browser = browser
	return s.browser, nil
}

// NewPage creates a page inside a fresh incognito browsing context with
// a randomized identity applied. The returned cleanup closes the page
// and disposes its context; contexts are never reused across requests.
func (s *Session) NewPage() (*rod.Page, func(), error) {
	browser, err := s.Browser()
	if err != nil {
		return nil, nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, nil, models.NewFetchError(models.ErrCodeInternal, "failed to create browsing context", err)
	}

	// Closing the page alone leaves the incognito context alive in the
	// browser process; disposal tears down the context and any targets
	// still attached to it.
	disposeContext := func() {
		if disposeErr := (proto.TargetDisposeBrowserContext{
			BrowserContextID: incognito.BrowserContextID,
		}).Call(browser); disposeErr != nil {
			slog.Warn("cleanup: failed to dispose browsing context", "error", disposeErr)
		}
	}

	// Deny downloads in this context so navigations to file URLs fail
	// fast instead of writing to disk. Best-effort: the navigation
	// error classifier still catches download attempts.
	if err := (proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDeny,
		BrowserContextID: incognito.BrowserContextID,
	}).Call(browser); err != nil {
		slog.Warn("failed to deny downloads for browsing context", "error", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		disposeContext()
		return nil, nil, models.NewFetchError(models.ErrCodeInternal, "failed to create page", err)
	}

	cleanup := func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("cleanup: failed to close page", "error", closeErr)
		}
		disposeContext()
	}

	if err := applyIdentity(page); err != nil {
		cleanup()
		return nil, nil, err
	}
	return page, cleanup, nil
}

// Started reports whether the browser process is currently running.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// Uptime reports how long the session has existed.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Shutdown closes the browser and its launcher exactly once. Safe to
// call multiple times and when the browser never started.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.browser == nil {
		return
	}

	slog.Info("session shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.browser = nil
	s.launcher = nil
	slog.Info("session shutdown complete")
}
