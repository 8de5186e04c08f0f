package probe

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLGuard validates monitor URLs before any probe touches the network,
// keeping user-supplied targets away from loopback, private ranges, and
// cloud metadata endpoints.
type URLGuard struct {
	allowPrivate bool
}

// NewURLGuard creates a URL guard. With allowPrivate set, private and
// loopback targets are permitted (useful for self-hosted deployments that
// monitor internal services).
func NewURLGuard(allowPrivate bool) *URLGuard {
	return &URLGuard{allowPrivate: allowPrivate}
}

// ValidateURL rejects URLs that resolve to disallowed addresses.
func (g *URLGuard) ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("only http and https schemes are allowed")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if g.blockedHostname(hostname) {
		return fmt.Errorf("access to this hostname is not allowed")
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("failed to resolve hostname: %w", err)
	}
	if len(ips) == 0 {
		return fmt.Errorf("hostname does not resolve to any IP address")
	}

	for _, ip := range ips {
		if err := g.validateIP(ip); err != nil {
			return fmt.Errorf("IP address %s is not allowed: %w", ip.String(), err)
		}
	}

	return nil
}

func (g *URLGuard) blockedHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)

	switch hostname {
	case "localhost", "localhost.localdomain", "127.0.0.1", "[::1]", "::1", "0.0.0.0":
		return !g.allowPrivate
	}

	// Cloud metadata endpoints are always blocked.
	metadata := []string{
		"169.254.169.254",
		"metadata.google.internal",
		"169.254.170.2",
		"fd00:ec2::254",
	}
	for _, blocked := range metadata {
		if hostname == blocked || strings.HasSuffix(hostname, "."+blocked) {
			return true
		}
	}

	return false
}

func (g *URLGuard) validateIP(ip net.IP) error {
	if g.allowPrivate {
		return nil
	}

	if ip.IsLoopback() {
		return fmt.Errorf("loopback addresses are not allowed")
	}
	if ip.IsPrivate() {
		return fmt.Errorf("private addresses are not allowed")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local addresses are not allowed")
	}
	if ip.IsMulticast() {
		return fmt.Errorf("multicast addresses are not allowed")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified addresses are not allowed")
	}

	return nil
}
