package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/browserfetch/models"
	"github.com/use-agent/browserfetch/urlguard"
)

// PrecheckOutcome reports whether the HEAD probe cleared a URL for the
// browser. Only Rejected carries an error; anything the probe cannot
// decide is left to the browser.
type PrecheckOutcome string

const (
	PrecheckPassed   PrecheckOutcome = "passed"
	PrecheckRejected PrecheckOutcome = "rejected"
	PrecheckSkipped  PrecheckOutcome = "skipped"
)

// webContentTypes are the Content-Type substrings accepted as pages.
var webContentTypes = []string{"text/html", "text/plain", "application/xhtml"}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. Computed once at init time and reused for every
// connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// headPrecheck probes a URL with a Chrome-fingerprinted HEAD request to
// reject obvious non-page targets before paying for a browser load.
type headPrecheck struct {
	client  *http.Client
	timeout time.Duration
}

func newHeadPrecheck(timeout time.Duration) *headPrecheck {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("precheck: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &headPrecheck{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				// Redirect hops get the same SSRF screening as the
				// original URL.
				return urlguard.Validate(req.Context(), req.URL.String())
			},
		},
		timeout: timeout,
	}
}

// Check runs the HEAD probe. Content-type and redirect-guard failures
// reject the URL; network-level failures are swallowed so the browser
// can produce the authoritative error.
func (h *headPrecheck) Check(ctx context.Context, rawURL string) (PrecheckOutcome, error) {
	reqCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return PrecheckSkipped, nil
	}
	req.Header.Set("User-Agent", userAgents[0])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := h.client.Do(req)
	if err != nil {
		var fe *models.FetchError
		if errors.As(err, &fe) {
			return PrecheckRejected, fe
		}
		slog.Debug("precheck probe failed, deferring to browser",
			"url", rawURL,
			"error", err,
		)
		return PrecheckSkipped, nil
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if finalURL != rawURL {
		if guardErr := urlguard.Validate(ctx, finalURL); guardErr != nil {
			return PrecheckRejected, guardErr
		}
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !isWebContentType(ct) {
		return PrecheckRejected, models.NewFetchError(models.ErrCodeNonHTMLContent,
			fmt.Sprintf("URL content type is '%s', not a web page: %s", ct, rawURL), nil)
	}
	return PrecheckPassed, nil
}

func isWebContentType(ct string) bool {
	for _, t := range webContentTypes {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}
