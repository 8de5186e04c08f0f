package probe

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCertCheckInvalidURL(t *testing.T) {
	p := NewCertProber(time.Second)

	for _, raw := range []string{"", "://broken", "not a url at all"} {
		res := p.Check(raw)
		if res.ErrorMessage == nil || *res.ErrorMessage != errInvalidURL {
			t.Errorf("Check(%q) error = %v, want %q", raw, res.ErrorMessage, errInvalidURL)
		}
		if res.Valid {
			t.Errorf("Check(%q) should not report a valid certificate", raw)
		}
	}
}

func TestCertCheckNotHTTPS(t *testing.T) {
	p := NewCertProber(time.Second)

	res := p.Check("http://example.com")
	if res.ErrorMessage == nil || *res.ErrorMessage != errNotHTTPS {
		t.Errorf("expected %q, got %v", errNotHTTPS, res.ErrorMessage)
	}
}

func TestCertCheckConnectionFailed(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewCertProber(time.Second)
	res := p.Check(url)
	if res.ErrorMessage == nil || *res.ErrorMessage != errConnFailed {
		t.Errorf("expected %q, got %v", errConnFailed, res.ErrorMessage)
	}
}

func TestCertCheckLiveServer(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	p := NewCertProber(time.Second)
	res := p.Check(server.URL)

	if res.ErrorMessage != nil {
		t.Fatalf("unexpected error: %s", *res.ErrorMessage)
	}
	if !res.Valid {
		t.Error("test server certificate should be within its validity window")
	}
	if res.Expired() {
		t.Error("test server certificate should not be expired")
	}
	if res.Issuer == "" {
		t.Error("expected an issuer to be extracted")
	}
	if res.ValidTo.Before(res.ValidFrom) {
		t.Errorf("not-after %v precedes not-before %v", res.ValidTo, res.ValidFrom)
	}
	if res.DaysLeft < 0 {
		t.Errorf("days left must be non-negative, got %d", res.DaysLeft)
	}
}

func TestCertCheckExpiredCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	p := NewCertProber(time.Second)
	// A clock far in the future puts the test certificate past not-after.
	p.now = func() time.Time { return time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC) }

	res := p.Check(server.URL)
	if res.Valid {
		t.Fatal("certificate should be expired from the future clock's view")
	}
	if !res.Expired() {
		t.Error("Expired() should report true")
	}
	if res.ErrorMessage == nil || *res.ErrorMessage != errExpired {
		t.Errorf("expected %q, got %v", errExpired, res.ErrorMessage)
	}
	if res.DaysLeft != 0 {
		t.Errorf("days left must clamp at 0, got %d", res.DaysLeft)
	}
}

func TestExpiringSoon(t *testing.T) {
	days := func(n int) *int { return &n }

	tests := []struct {
		name string
		days *int
		want bool
	}{
		{"nil", nil, false},
		{"zero", days(0), true},
		{"window edge", days(30), true},
		{"outside window", days(31), false},
		{"far out", days(300), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpiringSoon(tt.days); got != tt.want {
				t.Errorf("ExpiringSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}
