package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"watchpost/internal/models"
)

// Provider defines the interface for all notification providers
type Provider interface {
	// Name returns the unique identifier for this provider
	Name() string

	// Send sends a notification with the given message
	Send(ctx context.Context, channel *models.NotificationChannel, message *Message) error

	// Validate validates the provider configuration
	Validate(config map[string]string) error
}

// Message represents a notification message to be sent
type Message struct {
	Title       string
	Body        string
	MonitorName string
	MonitorURL  string
	Status      string // "up" or "down"
	Time        string
	Important   bool
}

// Registry holds all registered notification providers
var (
	providers = make(map[string]Provider)
	mu        sync.RWMutex
)

// RegisterProvider registers a new notification provider
func RegisterProvider(provider Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func GetProvider(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	provider, ok := providers[name]
	return provider, ok
}

// FormatDuration renders a duration as HH:MM:SS for human-readable alerts.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
