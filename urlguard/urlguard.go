// Package urlguard validates outbound URLs before the browser or any
// HTTP client touches them, blocking requests that would reach private
// or reserved networks (SSRF). Callers must re-run Validate on the
// final URL after following redirects.
package urlguard

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/use-agent/browserfetch/models"
)

// privateNets covers the address ranges a fetch must never reach:
// RFC 1918 space, loopback, link-local, "this network", unique-local
// and the IPv6 loopback/link-local equivalents.
var privateNets = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
		"127.0.0.0/8", "169.254.0.0/16", "0.0.0.0/8",
		"::1/128", "fc00::/7", "fe80::/10",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}()

// Validate rejects URLs targeting internal networks or non-HTTP schemes.
func Validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.NewFetchError(models.ErrCodeNoHostname,
			fmt.Sprintf("Invalid URL (no hostname): %s", rawURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return models.NewFetchError(models.ErrCodeInvalidScheme,
			fmt.Sprintf("Only http and https URLs are supported, got: %q", u.Scheme), nil)
	}
	if u.Hostname() == "" {
		return models.NewFetchError(models.ErrCodeNoHostname,
			fmt.Sprintf("Invalid URL (no hostname): %s", rawURL), nil)
	}
	return CheckHost(ctx, u.Hostname())
}

// CheckHost resolves hostname and verifies none of its addresses fall
// in a private or reserved range. IPv6-mapped IPv4 addresses
// (e.g. ::ffff:127.0.0.1) are normalized to their IPv4 form first so
// they cannot slip past the IPv4 ranges.
func CheckHost(ctx context.Context, hostname string) error {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return models.NewFetchError(models.ErrCodeUnresolvableHost,
			fmt.Sprintf("Could not resolve hostname: %s", hostname), err)
	}
	for _, addr := range addrs {
		ip := addr.IP
		if v4 := ip.To4(); v4 != nil {
			ip = v4
		}
		if isPrivate(ip) {
			return models.NewFetchError(models.ErrCodePrivateAddress,
				fmt.Sprintf("Access to private/internal addresses is blocked: %s resolves to %s", hostname, ip), nil)
		}
	}
	return nil
}

func isPrivate(ip net.IP) bool {
	if ip == nil {
		return true
	}
	for _, n := range privateNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
