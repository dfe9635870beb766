package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/browserfetch/models"
	"github.com/use-agent/browserfetch/urlguard"
)

const (
	maxScreenshotBytes  = 20 * 1024 * 1024
	maxScreenshotHeight = 16384
	screenshotSettle    = time.Second
)

// Screenshot renders req.URL and captures it as PNG. Full-page capture
// of extremely tall pages falls back to a capped 1280x16384 viewport so
// Chromium does not try to rasterize an unbounded surface.
func (f *Fetcher) Screenshot(ctx context.Context, req models.ScreenshotRequest) ([]byte, error) {
	png, err := f.screenshot(ctx, req)
	if f.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = errOutcome(err)
		}
		f.metrics.RecordScreenshot(outcome)
	}
	return png, err
}

func (f *Fetcher) screenshot(ctx context.Context, req models.ScreenshotRequest) ([]byte, error) {
	// ── 1. SSRF guard + content-type precheck ────────────────────────
	if err := urlguard.Validate(ctx, req.URL); err != nil {
		return nil, err
	}
	if outcome, err := f.precheck.Check(ctx, req.URL); outcome == PrecheckRejected {
		return nil, err
	}

	// ── 2. Admission slot + fresh page ───────────────────────────────
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

	page, cleanup, err := f.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// ── 3. Navigate and re-validate redirect targets ─────────────────
	if err := navigate(ctx, page, req.URL, f.cfg); err != nil {
		return nil, err
	}
	p := page.Context(ctx)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL != "" && finalURL != req.URL {
		if guardErr := urlguard.Validate(ctx, finalURL); guardErr != nil {
			return nil, guardErr
		}
	}

	// ── 4. Consent sweep + settle ────────────────────────────────────
	dismissCookieBanner(ctx, page)
	sleepCtx(ctx, screenshotSettle)

	// ── 5. Capture ───────────────────────────────────────────────────
	fullPage := req.FullPage
	if fullPage {
		if res, evalErr := p.Eval(`() => document.body.scrollHeight`); evalErr == nil {
			fullPage = clampTallCapture(res.Value.Int(), func() error {
				return p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
					Width:             viewportWidth,
					Height:            maxScreenshotHeight,
					DeviceScaleFactor: 1,
					Mobile:            false,
				})
			})
		}
	}

	png, err := p.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format:      proto.PageCaptureScreenshotFormatPng,
		FromSurface: true,
	})
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeInternal,
			fmt.Sprintf("failed to capture screenshot of %s", req.URL), err)
	}

	if len(png) > maxScreenshotBytes {
		return nil, models.NewFetchError(models.ErrCodeScreenshotTooLarge,
			fmt.Sprintf("Screenshot too large (%dMB, limit is %dMB)",
				len(png)/1024/1024, maxScreenshotBytes/1024/1024), nil)
	}
	return png, nil
}

// clampTallCapture decides whether a requested full-page capture keeps
// full-page mode for a document of the measured height. Chromium cannot
// rasterize a surface taller than maxScreenshotHeight, so taller pages
// always drop to viewport capture; capViewport runs best-effort to
// bound what the fallback shot sees.
func clampTallCapture(height int, capViewport func() error) bool {
	if height <= maxScreenshotHeight {
		return true
	}
	if err := capViewport(); err != nil {
		slog.Warn("failed to cap viewport for tall page", "height", height, "error", err)
	}
	return false
}
