package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"watchpost/internal/models"
	"watchpost/internal/probe"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{45 * time.Second, "00:00:45"},
		{30 * time.Minute, "00:30:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
		{-5 * time.Second, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

type recordingProvider struct {
	name string
	err  error

	mu       sync.Mutex
	messages []*Message
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Send(ctx context.Context, channel *models.NotificationChannel, msg *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingProvider) Validate(config map[string]string) error { return nil }

func (p *recordingProvider) sent() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Message(nil), p.messages...)
}

type staticChannels struct {
	channels []*models.NotificationChannel
	err      error
}

func (s *staticChannels) ActiveChannels(ctx context.Context) ([]*models.NotificationChannel, error) {
	return s.channels, s.err
}

func testDispatcher(t *testing.T, providerName string) (*Dispatcher, *recordingProvider) {
	t.Helper()
	provider := &recordingProvider{name: providerName}
	RegisterProvider(provider)

	channels := &staticChannels{channels: []*models.NotificationChannel{
		{ID: 1, Name: "ops", Type: providerName, Active: true},
	}}
	return NewDispatcher(channels, zerolog.Nop()), provider
}

func TestDispatcherMonitorDown(t *testing.T) {
	d, provider := testDispatcher(t, "rec-down")
	monitor := &models.Monitor{Name: "api", URL: "https://api.example.com"}

	d.MonitorDown(context.Background(), monitor, "HTTP 500")

	msgs := provider.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Title != "api is DOWN" {
		t.Errorf("unexpected title %q", msgs[0].Title)
	}
	if msgs[0].Body != "HTTP 500" {
		t.Errorf("expected the failure reason as body, got %q", msgs[0].Body)
	}
	if !msgs[0].Important {
		t.Error("down notifications must be marked important")
	}
}

func TestDispatcherMonitorStillDown(t *testing.T) {
	d, provider := testDispatcher(t, "rec-still")
	monitor := &models.Monitor{Name: "api", URL: "https://api.example.com"}

	d.MonitorStillDown(context.Background(), monitor, 30*time.Minute)

	msgs := provider.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Title != "api is still DOWN" {
		t.Errorf("unexpected title %q", msgs[0].Title)
	}
	if msgs[0].Body != "Down for 00:30:00." {
		t.Errorf("unexpected body %q", msgs[0].Body)
	}
}

func TestDispatcherMonitorRecovered(t *testing.T) {
	d, provider := testDispatcher(t, "rec-up")
	monitor := &models.Monitor{Name: "api", URL: "https://api.example.com"}

	d.MonitorRecovered(context.Background(), monitor, 90*time.Minute)

	msgs := provider.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Title != "api has recovered" {
		t.Errorf("unexpected title %q", msgs[0].Title)
	}
	if msgs[0].Body != "Total downtime: 01:30:00." {
		t.Errorf("unexpected body %q", msgs[0].Body)
	}
	if msgs[0].Status != models.StatusUp {
		t.Errorf("recovery message should carry up status, got %q", msgs[0].Status)
	}
}

func TestDispatcherCertExpiry(t *testing.T) {
	d, provider := testDispatcher(t, "rec-cert")
	monitor := &models.Monitor{Name: "shop", URL: "https://shop.example.com"}

	validTo := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d.CertExpiry(context.Background(), monitor, &probe.CertResult{
		Valid:    true,
		Issuer:   "Example CA",
		ValidTo:  validTo,
		DaysLeft: 12,
	})

	msgs := provider.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Title != "Certificate for shop expires in 12 days" {
		t.Errorf("unexpected title %q", msgs[0].Title)
	}
}

func TestDispatcherSwallowsProviderErrors(t *testing.T) {
	provider := &recordingProvider{name: "rec-err", err: errors.New("delivery failed")}
	RegisterProvider(provider)

	channels := &staticChannels{channels: []*models.NotificationChannel{
		{ID: 1, Name: "ops", Type: "rec-err", Active: true},
	}}
	d := NewDispatcher(channels, zerolog.Nop())

	// Must return normally even when every delivery fails.
	d.MonitorDown(context.Background(), &models.Monitor{Name: "api"}, "HTTP 500")

	if len(provider.sent()) != 1 {
		t.Error("the provider should still have been invoked")
	}
}

func TestDispatcherUnknownProviderType(t *testing.T) {
	channels := &staticChannels{channels: []*models.NotificationChannel{
		{ID: 1, Name: "ops", Type: "no-such-provider", Active: true},
	}}
	d := NewDispatcher(channels, zerolog.Nop())

	// Must not panic or block.
	d.MonitorDown(context.Background(), &models.Monitor{Name: "api"}, "HTTP 500")
}

func TestDispatcherNoChannels(t *testing.T) {
	d := NewDispatcher(&staticChannels{}, zerolog.Nop())
	d.MonitorRecovered(context.Background(), &models.Monitor{Name: "api"}, time.Minute)
}

func TestBuiltinProvidersRegistered(t *testing.T) {
	for _, name := range []string{"webhook", "slack", "telegram"} {
		if _, ok := GetProvider(name); !ok {
			t.Errorf("provider %q not registered", name)
		}
	}
}
