package probe

import (
	"crypto/tls"
	"net"
	"net/url"
	"time"
)

// CertResult error messages
const (
	errNotHTTPS      = "URL is not HTTPS"
	errInvalidURL    = "Invalid URL format"
	errConnFailed    = "Connection failed"
	errNoCert        = "Could not retrieve certificate"
	errBadCert       = "Could not parse certificate"
	errExpired       = "Certificate has expired"
)

// CertResult holds the outcome of a certificate inspection.
type CertResult struct {
	Valid        bool
	Issuer       string
	ValidFrom    time.Time
	ValidTo      time.Time
	DaysLeft     int
	ErrorMessage *string
}

// Expired reports whether the inspection found a certificate past its
// not-after date.
func (c *CertResult) Expired() bool {
	return !c.Valid && c.ErrorMessage != nil && *c.ErrorMessage == errExpired
}

// CertProber opens a TLS connection and inspects the peer certificate.
// Peer verification is disabled on purpose: the goal is inspection of
// whatever certificate the server presents, not trust validation.
type CertProber struct {
	timeout time.Duration
	now     func() time.Time
}

// NewCertProber creates a certificate prober.
func NewCertProber(timeout time.Duration) *CertProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CertProber{timeout: timeout, now: time.Now}
}

// Check inspects the certificate served for the monitor URL. Only HTTPS
// URLs are applicable; all failures resolve into an error message on the
// result, never an error return.
func (p *CertProber) Check(rawURL string) *CertResult {
	result := &CertResult{}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		result.ErrorMessage = strPtr(errInvalidURL)
		return result
	}

	if parsed.Scheme != "https" {
		result.ErrorMessage = strPtr(errNotHTTPS)
		return result
	}

	host := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		port = "443"
	}

	conn, err := tls.DialWithDialer(
		&net.Dialer{Timeout: p.timeout},
		"tcp",
		net.JoinHostPort(host, port),
		&tls.Config{
			InsecureSkipVerify: true,
			ServerName:         host,
		},
	)
	if err != nil {
		result.ErrorMessage = strPtr(errConnFailed)
		return result
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		result.ErrorMessage = strPtr(errNoCert)
		return result
	}

	cert := certs[0]
	if cert == nil {
		result.ErrorMessage = strPtr(errBadCert)
		return result
	}

	now := p.now()
	result.ValidFrom = cert.NotBefore
	result.ValidTo = cert.NotAfter
	result.DaysLeft = daysUntil(now, cert.NotAfter)
	result.Valid = now.Before(cert.NotAfter)
	if !result.Valid {
		result.ErrorMessage = strPtr(errExpired)
	}

	issuer := cert.Issuer.CommonName
	if issuer == "" && len(cert.Issuer.Organization) > 0 {
		issuer = cert.Issuer.Organization[0]
	}
	if issuer == "" {
		issuer = "Unknown"
	}
	result.Issuer = issuer

	return result
}
