package fetcher

import (
	"log/slog"
	"math/rand"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/browserfetch/models"
)

// userAgents holds current desktop Chrome UA strings. Desktop only:
// mobile UAs change the served layout and markup.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
}

const (
	viewportWidth  = 1280
	viewportHeight = 720
	acceptLanguage = "en-US,en;q=0.9"
)

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// platformFor keeps navigator.platform consistent with the OS named in
// the UA string.
func platformFor(ua string) string {
	switch {
	case strings.Contains(ua, "Macintosh"):
		return "MacIntel"
	case strings.Contains(ua, "X11"):
		return "Linux x86_64"
	default:
		return "Win32"
	}
}

// applyIdentity gives a fresh page a coherent desktop Chrome identity:
// a pooled UA with matching platform, en-US locale, a 1280x720
// viewport, and the stealth script installed before any navigation.
func applyIdentity(page *rod.Page) error {
	// Stealth must be installed before the first navigation; it only
	// affects documents created after injection.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr,
		)
	}

	ua := randomUserAgent()
	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: "en-US",
		Platform:       platformFor(ua),
	}).Call(page); err != nil {
		return models.NewFetchError(models.ErrCodeInternal, "failed to set user agent", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		slog.Warn("failed to set viewport", "error", err)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": acceptLanguage}),
	}.Call(page)

	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
