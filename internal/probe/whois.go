package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DomainResult error messages
const (
	errNoDomain     = "Could not extract domain from URL"
	errEmptyWhois   = "Empty WHOIS response"
	errNoExpiry     = "Could not parse expiration date from WHOIS response"
	errBadDate      = "Invalid date format in WHOIS response"
)

// fallbackWhoisServer answers referrals for TLDs missing from the table.
const fallbackWhoisServer = "whois.iana.org"

// DomainResult holds the outcome of a WHOIS expiration lookup.
type DomainResult struct {
	ExpiresAt    *time.Time
	DaysLeft     *int
	ErrorMessage *string
}

// QueryFunc performs a raw WHOIS query against a server for a domain and
// returns the full response text.
type QueryFunc func(ctx context.Context, server, domain string) (string, error)

type cacheEntry struct {
	result  DomainResult
	expires time.Time
}

// WhoisProber resolves the registrable domain of a monitor URL and queries
// the appropriate WHOIS server for its expiration date. Results are cached
// per domain for 24 hours, with single-flight semantics so concurrent
// sweeps never fan a cache miss out into redundant queries.
type WhoisProber struct {
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time
	query   QueryFunc

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewWhoisProber creates a WHOIS prober with a 24h result cache.
func NewWhoisProber(timeout time.Duration) *WhoisProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &WhoisProber{
		timeout: timeout,
		ttl:     24 * time.Hour,
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
	p.query = p.rawQuery
	return p
}

// GetExpiration returns the domain expiration for a monitor URL. Every
// failure mode resolves into an error message on the result.
func (p *WhoisProber) GetExpiration(ctx context.Context, rawURL string) *DomainResult {
	domain, ok := RegistrableDomain(rawURL)
	if !ok {
		return &DomainResult{ErrorMessage: strPtr(errNoDomain)}
	}

	if res, ok := p.cached(domain); ok {
		return res
	}

	v, _, _ := p.group.Do(domain, func() (interface{}, error) {
		// Another flight may have filled the cache while we waited.
		if res, ok := p.cached(domain); ok {
			return res, nil
		}
		res := p.lookup(ctx, domain)
		p.store(domain, res)
		return res, nil
	})

	res := v.(*DomainResult)
	out := *res
	return &out
}

func (p *WhoisProber) cached(domain string) (*DomainResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.cache[domain]
	if !ok || p.now().After(entry.expires) {
		return nil, false
	}
	out := entry.result
	return &out, true
}

func (p *WhoisProber) store(domain string, res *DomainResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[domain] = cacheEntry{result: *res, expires: p.now().Add(p.ttl)}
}

func (p *WhoisProber) lookup(ctx context.Context, domain string) *DomainResult {
	server := whoisServerFor(domain)

	response, err := p.query(ctx, server, domain)
	if err != nil {
		return &DomainResult{ErrorMessage: strPtr(err.Error())}
	}
	if strings.TrimSpace(response) == "" {
		return &DomainResult{ErrorMessage: strPtr(errEmptyWhois)}
	}

	expiry, errMsg := ParseExpiration(response)
	if errMsg != "" {
		return &DomainResult{ErrorMessage: strPtr(errMsg)}
	}

	days := daysUntil(p.now(), expiry)
	return &DomainResult{ExpiresAt: &expiry, DaysLeft: &days}
}

// rawQuery speaks the WHOIS protocol: plain TCP to port 43, send the
// domain terminated by CRLF, read to EOF.
func (p *WhoisProber) rawQuery(ctx context.Context, server, domain string) (string, error) {
	dialer := &net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, "43"))
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return "", err
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", domain); err != nil {
		return "", err
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// multiPartSuffixes lists known public suffixes made of two labels, where
// the registrable domain keeps three labels instead of two.
var multiPartSuffixes = map[string]bool{
	"co.uk":  true,
	"org.uk": true,
	"com.au": true,
	"co.za":  true,
	"com.br": true,
	"co.jp":  true,
	"com.mx": true,
	"co.nz":  true,
	"co.in":  true,
	"com.cn": true,
}

// RegistrableDomain extracts the registrable domain from a monitor URL:
// strip port and leading www., then keep the last two labels, or three for
// known multi-part public suffixes.
func RegistrableDomain(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := parsed.Hostname()
	if host == "" {
		// Bare hosts like "example.com" parse with an empty Host.
		host = parsed.Path
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	host = strings.TrimPrefix(host, "www.")

	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", false
	}

	keep := 2
	suffix := strings.Join(labels[len(labels)-2:], ".")
	if multiPartSuffixes[suffix] && len(labels) >= 3 {
		keep = 3
	}

	return strings.Join(labels[len(labels)-keep:], "."), true
}

// whoisServers maps TLDs to their WHOIS servers for common gTLDs/ccTLDs.
var whoisServers = map[string]string{
	"com":  "whois.verisign-grs.com",
	"net":  "whois.verisign-grs.com",
	"cc":   "ccwhois.verisign-grs.com",
	"tv":   "tvwhois.verisign-grs.com",
	"org":  "whois.pir.org",
	"info": "whois.afilias.net",
	"biz":  "whois.biz",
	"io":   "whois.nic.io",
	"co":   "whois.nic.co",
	"me":   "whois.nic.me",
	"dev":  "whois.nic.google",
	"app":  "whois.nic.google",
	"uk":   "whois.nic.uk",
	"de":   "whois.denic.de",
	"fr":   "whois.nic.fr",
	"nl":   "whois.domain-registry.nl",
	"it":   "whois.nic.it",
	"es":   "whois.nic.es",
	"pl":   "whois.dns.pl",
	"ch":   "whois.nic.ch",
	"se":   "whois.iis.se",
	"no":   "whois.norid.no",
	"ru":   "whois.tcinet.ru",
	"jp":   "whois.jprs.jp",
	"au":   "whois.auda.org.au",
	"nz":   "whois.srs.net.nz",
	"br":   "whois.registro.br",
	"mx":   "whois.mx",
	"za":   "whois.registry.net.za",
	"in":   "whois.registry.in",
	"cn":   "whois.cnnic.cn",
	"ca":   "whois.cira.ca",
	"us":   "whois.nic.us",
}

func whoisServerFor(domain string) string {
	labels := strings.Split(domain, ".")
	tld := labels[len(labels)-1]
	if server, ok := whoisServers[tld]; ok {
		return server
	}
	return fallbackWhoisServer
}

// Expiration date patterns, tried in order; first match wins.
var (
	// ISO-style date near an "expir" label: 2030-01-15, 2030.01.15, 2030/01/15
	expiryISORe = regexp.MustCompile(`(?i)expir[^:\n]*:?\s*(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)
	// Day-first variants near an "expir" label: 15-01-2030, 15.01.2030
	expiryDMYRe = regexp.MustCompile(`(?i)expir[^:\n]*:?\s*(\d{1,2})[-./](\d{1,2})[-./](\d{4})`)
	// Literal labels with free-form values
	expiryLabelRe = regexp.MustCompile(`(?i)(?:Registry Expiry Date|expires):\s*(\S+)`)
)

var labelLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02 15:04:05",
}

// ParseExpiration scans a WHOIS response for the expiration date. It
// returns either the parsed date or one of the fixed error messages.
func ParseExpiration(response string) (time.Time, string) {
	if m := expiryISORe.FindStringSubmatch(response); m != nil {
		return parseYMD(m[1], m[2], m[3])
	}

	if m := expiryDMYRe.FindStringSubmatch(response); m != nil {
		// Day-month-year, reordered to ISO before parsing.
		return parseYMD(m[3], m[2], m[1])
	}

	if m := expiryLabelRe.FindStringSubmatch(response); m != nil {
		for _, layout := range labelLayouts {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return t, ""
			}
		}
		return time.Time{}, errBadDate
	}

	return time.Time{}, errNoExpiry
}

func parseYMD(year, month, day string) (time.Time, string) {
	iso := fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
