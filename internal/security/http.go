// Package security guards outbound requests made on behalf of model
// tool calls. Tool inputs are model-generated and therefore untrusted:
// a fetched URL or a generated SQL statement must never reach internal
// infrastructure.
package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/steelhand/steelhand/internal/log"
)

// maxRedirects bounds redirect chains on guarded clients.
const maxRedirects = 3

// URLGuard validates URLs before the web fetch tool dereferences them,
// blocking requests into private networks and metadata services.
type URLGuard struct {
	maxBodySize int64
	schemes     []string
	logger      log.Logger
}

// NewURLGuard creates a guard with a 5MB response cap and http/https only.
func NewURLGuard(logger log.Logger) *URLGuard {
	return &URLGuard{
		maxBodySize: 5 << 20,
		schemes:     []string{"http", "https"},
		logger:      logger,
	}
}

// MaxBodySize returns the response size cap callers must enforce.
func (g *URLGuard) MaxBodySize() int64 {
	return g.maxBodySize
}

// Validate reports whether fetching the URL is permitted. It resolves
// the hostname and rejects if any resolved address is private,
// loopback, link-local, or a known metadata endpoint.
func (g *URLGuard) Validate(ctx context.Context, rawURL string) error {
	u, err := parseGuardedURL(rawURL)
	if err != nil {
		return err
	}

	if !slices.Contains(g.schemes, strings.ToLower(u.scheme)) {
		return fmt.Errorf("scheme %q not allowed, use http or https", u.scheme)
	}

	if blockedHostname(u.hostname) {
		g.logger.Warn("blocked fetch of internal hostname",
			"url", rawURL,
			"hostname", u.hostname,
			"security_event", "ssrf_hostname")
		return fmt.Errorf("access to internal hosts and metadata services is denied")
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", u.hostname)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", u.hostname, err)
	}

	for _, addr := range addrs {
		if blockedAddr(addr) {
			g.logger.Warn("blocked fetch resolving to private address",
				"url", rawURL,
				"hostname", u.hostname,
				"addr", addr.String(),
				"security_event", "ssrf_private_ip")
			return fmt.Errorf("access to internal address %s is denied", addr)
		}
	}

	return nil
}

// Client returns an HTTP client that revalidates every redirect hop,
// so a public URL cannot bounce the fetcher into a private range.
func (g *URLGuard) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if err := g.Validate(req.Context(), req.URL.String()); err != nil {
				g.logger.Warn("blocked unsafe redirect",
					"redirect_url", req.URL.String(),
					"origin_url", via[0].URL.String(),
					"security_event", "ssrf_redirect")
				return fmt.Errorf("redirect refused: %w", err)
			}
			return nil
		},
	}
}

type guardedURL struct {
	scheme   string
	hostname string
}

func parseGuardedURL(rawURL string) (guardedURL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return guardedURL{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Hostname() == "" {
		return guardedURL{}, fmt.Errorf("URL has no hostname")
	}
	return guardedURL{scheme: u.Scheme, hostname: u.Hostname()}, nil
}

// blockedHostname catches well-known internal names before DNS is
// consulted. Resolution-based checks still apply afterwards.
func blockedHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)

	switch hostname {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	case "169.254.169.254", "metadata.google.internal", "metadata":
		return true
	}

	// Literal IPs in the URL skip DNS, so classify them here too.
	if addr, err := netip.ParseAddr(hostname); err == nil {
		return blockedAddr(addr)
	}

	return strings.HasSuffix(hostname, ".internal") ||
		strings.HasSuffix(hostname, ".local")
}

// blockedAddr reports whether an address must not be fetched.
func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}
