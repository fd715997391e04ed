// Package httpclient provides the HTTP client used to download remote
// vocabulary sources. Vocabulary locations come from configuration and
// drop-in files, so by default the client refuses to reach loopback,
// private or link-local addresses.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/taxon/errors"
)

// ErrBlocked marks requests refused by SSRF protection
var ErrBlocked = errors.New("request blocked by SSRF protection")

// Options allows customization of SSRF protection
type Options struct {
	Timeout        time.Duration // Zero means no client timeout
	AllowedSchemes []string      // Default: ["http", "https"]
	MaxRedirects   int           // Default: 10
	// AllowPrivateNetworks permits loopback and private addresses
	// (intranet vocabulary servers, tests against httptest servers).
	AllowPrivateNetworks bool
}

// SaferClient wraps http.Client with SSRF protection.
// Every request, including each redirect hop, is validated by the
// transport, so the embedded client can be handed to libraries that call
// http.Client.Do directly.
type SaferClient struct {
	*http.Client
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
}

// New creates an HTTP client with SSRF protection
func New(opts Options) *SaferClient {
	allowedSchemes := opts.AllowedSchemes
	if allowedSchemes == nil {
		allowedSchemes = []string{"http", "https"}
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	client := &SaferClient{
		Client: &http.Client{
			Timeout: opts.Timeout,
		},
		allowedSchemes: allowedSchemes,
		blockPrivateIP: !opts.AllowPrivateNetworks,
		maxRedirects:   maxRedirects,
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if client.blockPrivateIP {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}

			// Checked at dial time too, against DNS rebinding
			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, errors.Mark(errors.Newf("private IP address blocked: %s", ip), ErrBlocked)
				}
			}

			return dialer.DialContext(ctx, network, addr)
		}
	}

	client.Transport = &validatingTransport{client: client, next: transport}
	return client
}

// validatingTransport rejects requests to disallowed URLs before they are sent
type validatingTransport struct {
	client *SaferClient
	next   http.RoundTripper
}

func (t *validatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.client.validateURL(req.URL); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

// validateURL validates URL for SSRF protection before making request
func (c *SaferClient) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, allowedScheme := range c.allowedSchemes {
		if scheme == allowedScheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Mark(errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes), ErrBlocked)
	}

	// http://evil.com@localhost/ style confusion
	if u.User != nil || strings.Contains(u.Host, "@") {
		return errors.Mark(errors.New("URL contains @ character (potential SSRF attempt)"), ErrBlocked)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.Mark(errors.New("URL missing hostname"), ErrBlocked)
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return errors.Mark(errors.New("localhost access blocked"), ErrBlocked)
		}
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Mark(errors.Newf("private IP address blocked: %s", hostname), ErrBlocked)
		}
	}

	return nil
}

// ValidateURL validates a URL string before creating a request
func (c *SaferClient) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

var privateBlocks = []net.IPNet{
	{IP: net.IPv4(10, 0, 0, 0), Mask: net.CIDRMask(8, 32)},     // 10.0.0.0/8
	{IP: net.IPv4(172, 16, 0, 0), Mask: net.CIDRMask(12, 32)},  // 172.16.0.0/12
	{IP: net.IPv4(192, 168, 0, 0), Mask: net.CIDRMask(16, 32)}, // 192.168.0.0/16
	{IP: net.IPv4(127, 0, 0, 0), Mask: net.CIDRMask(8, 32)},    // loopback
	{IP: net.IPv4(169, 254, 0, 0), Mask: net.CIDRMask(16, 32)}, // link-local
	{IP: net.IPv4(0, 0, 0, 0), Mask: net.CIDRMask(8, 32)},      // 0.0.0.0/8
	{IP: net.IPv4(224, 0, 0, 0), Mask: net.CIDRMask(4, 32)},    // multicast
	{IP: net.IPv4(240, 0, 0, 0), Mask: net.CIDRMask(4, 32)},    // reserved
}

// isPrivateIP checks if an IP is in private/special use ranges
func isPrivateIP(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		for _, block := range privateBlocks {
			if block.Contains(ip4) {
				return true
			}
		}
		return false
	}

	if len(ip) != net.IPv6len {
		return false
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	// Unique local fc00::/7
	if (ip[0] & 0xfe) == 0xfc {
		return true
	}
	// Site-local fec0::/10, deprecated
	if ip[0] == 0xfe && (ip[1]&0xc0) == 0xc0 {
		return true
	}
	// Documentation 2001:db8::/32
	return ip[0] == 0x20 && ip[1] == 0x01 && ip[2] == 0x0d && ip[3] == 0xb8
}

// isLocalhost checks for localhost variants
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}
