package probe

import (
	"net"
	"strings"
	"testing"
)

func TestURLGuardSchemes(t *testing.T) {
	g := NewURLGuard(false)

	for _, raw := range []string{"ftp://example.com", "file:///etc/passwd", "gopher://example.com"} {
		if err := g.ValidateURL(raw); err == nil {
			t.Errorf("ValidateURL(%q) should reject non-http schemes", raw)
		}
	}
}

func TestURLGuardMissingHostname(t *testing.T) {
	g := NewURLGuard(false)
	if err := g.ValidateURL("http://"); err == nil {
		t.Error("expected error for URL without hostname")
	}
}

func TestURLGuardBlockedHostnames(t *testing.T) {
	g := NewURLGuard(false)

	blocked := []string{
		"http://localhost",
		"http://localhost.localdomain:8080",
		"http://127.0.0.1/admin",
		"http://0.0.0.0",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/computeMetadata/v1/",
	}
	for _, raw := range blocked {
		if err := g.ValidateURL(raw); err == nil {
			t.Errorf("ValidateURL(%q) should be blocked", raw)
		}
	}
}

func TestURLGuardAllowPrivate(t *testing.T) {
	g := NewURLGuard(true)

	if err := g.ValidateURL("http://localhost:9090/metrics"); err != nil {
		t.Errorf("localhost should be allowed with private targets enabled: %v", err)
	}
}

func TestURLGuardMetadataAlwaysBlocked(t *testing.T) {
	// Even self-hosted deployments that monitor internal services must not
	// reach cloud metadata endpoints.
	g := NewURLGuard(true)

	if err := g.ValidateURL("http://169.254.169.254/latest/meta-data/"); err == nil {
		t.Error("metadata endpoint should be blocked regardless of the private-target setting")
	}
	if !strings.Contains(
		g.ValidateURL("http://metadata.google.internal/").Error(),
		"not allowed",
	) {
		t.Error("expected a hostname-not-allowed error")
	}
}

func TestURLGuardValidateIP(t *testing.T) {
	g := NewURLGuard(false)

	tests := []struct {
		ip      string
		wantErr bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.0.0.1", true},
		{"172.16.5.5", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"224.0.0.1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2606:4700:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			err := g.validateIP(net.ParseIP(tt.ip))
			if (err != nil) != tt.wantErr {
				t.Errorf("validateIP(%s) error = %v, wantErr %v", tt.ip, err, tt.wantErr)
			}
		})
	}
}

func TestURLGuardValidateIPAllowPrivate(t *testing.T) {
	g := NewURLGuard(true)

	for _, raw := range []string{"127.0.0.1", "10.0.0.1", "192.168.1.1"} {
		if err := g.validateIP(net.ParseIP(raw)); err != nil {
			t.Errorf("validateIP(%s) with private targets enabled: %v", raw, err)
		}
	}
}
