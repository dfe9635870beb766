package fetcher

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

const (
	bannerFindTimeout  = 200 * time.Millisecond
	bannerClickTimeout = time.Second
	bannerSettleDelay  = 500 * time.Millisecond
	scrollStepDelay    = 500 * time.Millisecond
	maxScrollSteps     = 10
)

// BannerOutcome reports what the consent sweep did to a page. Logged
// only; a banner that stays up is not an error.
type BannerOutcome string

const (
	BannerApplied  BannerOutcome = "applied"
	BannerNotFound BannerOutcome = "not_found"
	BannerSkipped  BannerOutcome = "skipped"
)

// bannerRule is one consent-button probe. text is a regex matched
// against element text (CSS alone cannot match text); empty means the
// selector is enough.
type bannerRule struct {
	selector string
	text     string
}

// cookieAcceptRules in priority order; the first visible match wins.
// Generic accept buttons first, then scoped container buttons, then
// the big CMP vendors (OneTrust, Cookiebot, Quantcast).
var cookieAcceptRules = []bannerRule{
	{selector: "button", text: "Accept All"},
	{selector: "button", text: "Accept all"},
	{selector: "button", text: "Accept Cookies"},
	{selector: "button", text: "Accept cookies"},
	{selector: "button", text: "Allow All"},
	{selector: "button", text: "Allow all"},
	{selector: "button", text: "I Agree"},
	{selector: "button", text: "I agree"},
	{selector: "button", text: "Got it"},
	{selector: "button", text: "OK"},
	{selector: "[id*='cookie'] button", text: "Accept"},
	{selector: "[class*='cookie'] button", text: "Accept"},
	{selector: "[id*='consent'] button", text: "Accept"},
	{selector: "[class*='consent'] button", text: "Accept"},
	{selector: "[aria-label*='cookie' i] button"},
	{selector: "[aria-label*='Accept' i][role='button']"},
	{selector: "#onetrust-accept-btn-handler"},
	{selector: "#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"},
	{selector: ".qc-cmp2-summary-buttons button[mode='primary']"},
	{selector: "[data-testid='cookie-policy-dialog-accept-button']"},
}

// dismissCookieBanner clicks the first visible consent button, then
// strips known banner containers from the DOM so hidden remnants do not
// pollute extraction. Every step is best-effort.
func dismissCookieBanner(ctx context.Context, page *rod.Page) BannerOutcome {
	for _, rule := range cookieAcceptRules {
		if ctx.Err() != nil {
			return BannerSkipped
		}
		if clickBannerButton(ctx, page, rule) {
			removeBannerContainers(page)
			return BannerApplied
		}
	}
	return BannerNotFound
}

func clickBannerButton(ctx context.Context, page *rod.Page, rule bannerRule) bool {
	findCtx, cancel := context.WithTimeout(ctx, bannerFindTimeout)
	defer cancel()
	p := page.Context(findCtx)

	var el *rod.Element
	var err error
	if rule.text != "" {
		el, err = p.ElementR(rule.selector, rule.text)
	} else {
		el, err = p.Element(rule.selector)
	}
	if err != nil {
		return false
	}
	if visible, visErr := el.Visible(); visErr != nil || !visible {
		return false
	}

	clickCtx, cancelClick := context.WithTimeout(ctx, bannerClickTimeout)
	defer cancelClick()
	if clickErr := el.Context(clickCtx).Click(proto.InputMouseButtonLeft, 1); clickErr != nil {
		return false
	}
	sleepCtx(ctx, bannerSettleDelay)
	return true
}

// removeBannerContainers deletes CMP containers left in the DOM after
// consent. Banners often stay mounted (hidden) and would otherwise leak
// into extracted text.
func removeBannerContainers(p *rod.Page) {
	const js = `() => {
		const selectors = [
			'#onetrust-banner-sdk', '#onetrust-consent-sdk',
			'#CybotCookiebotDialog', '#cookiebanner',
			'.qc-cmp2-container',
			'[class*="cookie-banner"]', '[class*="cookie-consent"]',
			'[class*="cookieBanner"]', '[class*="cookieConsent"]',
			'[id*="cookie-banner"]', '[id*="cookie-consent"]',
			'[id*="cookieBanner"]', '[id*="cookieConsent"]',
			'[aria-label*="cookie" i]',
		];
		for (const sel of selectors) {
			document.querySelectorAll(sel).forEach(el => el.remove());
		}
	}`
	_, _ = p.Eval(js)
}

// autoScroll pages toward the bottom to trigger lazy-loaded content,
// stopping once document height stops growing, then jumps back to the
// top so screenshots and extraction start from the real viewport.
func autoScroll(ctx context.Context, page *rod.Page) {
	p := page.Context(ctx)
	prevHeight := 0
	for i := 0; i < maxScrollSteps; i++ {
		res, err := p.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return
		}
		height := res.Value.Int()
		if height == prevHeight {
			break
		}
		prevHeight = height
		if pressErr := p.Keyboard.Press(input.PageDown); pressErr != nil {
			return
		}
		sleepCtx(ctx, scrollStepDelay)
	}
	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
}

// sleepCtx sleeps for d or until ctx ends, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
