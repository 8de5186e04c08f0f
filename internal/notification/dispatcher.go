package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"watchpost/internal/models"
	"watchpost/internal/probe"
)

// ChannelSource provides the configured delivery channels.
type ChannelSource interface {
	ActiveChannels(ctx context.Context) ([]*models.NotificationChannel, error)
}

// Dispatcher fans alerts out to all active channels. Delivery failures are
// logged and swallowed: a failed notification must never block or fail the
// state transition it was attached to.
type Dispatcher struct {
	channels ChannelSource
	log      zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(channels ChannelSource, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{channels: channels, log: log, now: time.Now}
}

// MonitorDown announces a freshly confirmed outage.
func (d *Dispatcher) MonitorDown(ctx context.Context, monitor *models.Monitor, reason string) {
	body := "The monitor is not responding."
	if reason != "" {
		body = reason
	}
	d.send(ctx, &Message{
		Title:       fmt.Sprintf("%s is DOWN", monitor.Name),
		Body:        body,
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Status:      models.StatusDown,
		Time:        d.now().Format(time.RFC3339),
		Important:   true,
	})
}

// MonitorStillDown re-announces an ongoing outage with its running total.
func (d *Dispatcher) MonitorStillDown(ctx context.Context, monitor *models.Monitor, downFor time.Duration) {
	d.send(ctx, &Message{
		Title:       fmt.Sprintf("%s is still DOWN", monitor.Name),
		Body:        fmt.Sprintf("Down for %s.", FormatDuration(downFor)),
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Status:      models.StatusDown,
		Time:        d.now().Format(time.RFC3339),
		Important:   true,
	})
}

// MonitorRecovered announces the end of an outage with its total duration.
func (d *Dispatcher) MonitorRecovered(ctx context.Context, monitor *models.Monitor, downFor time.Duration) {
	d.send(ctx, &Message{
		Title:       fmt.Sprintf("%s has recovered", monitor.Name),
		Body:        fmt.Sprintf("Total downtime: %s.", FormatDuration(downFor)),
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Status:      models.StatusUp,
		Time:        d.now().Format(time.RFC3339),
	})
}

// CertExpiry announces an expired or soon-expiring certificate.
func (d *Dispatcher) CertExpiry(ctx context.Context, monitor *models.Monitor, res *probe.CertResult) {
	var title, body string
	if res.Expired() {
		title = fmt.Sprintf("Certificate for %s has EXPIRED", monitor.Name)
		body = fmt.Sprintf("The certificate issued by %s expired on %s.",
			res.Issuer, res.ValidTo.Format("2006-01-02"))
	} else {
		title = fmt.Sprintf("Certificate for %s expires in %d days", monitor.Name, res.DaysLeft)
		body = fmt.Sprintf("The certificate issued by %s is valid until %s.",
			res.Issuer, res.ValidTo.Format("2006-01-02"))
	}
	d.send(ctx, &Message{
		Title:       title,
		Body:        body,
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Status:      models.StatusDown,
		Time:        d.now().Format(time.RFC3339),
		Important:   true,
	})
}

// DomainExpiry announces a soon-expiring domain registration.
func (d *Dispatcher) DomainExpiry(ctx context.Context, monitor *models.Monitor, res *probe.DomainResult) {
	body := "The domain registration is about to expire."
	if res.ExpiresAt != nil {
		body = fmt.Sprintf("The domain registration expires on %s.", res.ExpiresAt.Format("2006-01-02"))
	}
	days := 0
	if res.DaysLeft != nil {
		days = *res.DaysLeft
	}
	d.send(ctx, &Message{
		Title:       fmt.Sprintf("Domain for %s expires in %d days", monitor.Name, days),
		Body:        body,
		MonitorName: monitor.Name,
		MonitorURL:  monitor.URL,
		Status:      models.StatusDown,
		Time:        d.now().Format(time.RFC3339),
		Important:   true,
	})
}

// send delivers a message to every active channel concurrently.
func (d *Dispatcher) send(ctx context.Context, msg *Message) {
	channels, err := d.channels.ActiveChannels(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to load notification channels")
		return
	}
	if len(channels) == 0 {
		return
	}

	done := make(chan struct{}, len(channels))
	for _, channel := range channels {
		go func(c *models.NotificationChannel) {
			defer func() { done <- struct{}{} }()

			provider, ok := GetProvider(c.Type)
			if !ok {
				d.log.Warn().Str("type", c.Type).Str("channel", c.Name).Msg("unknown notification provider")
				return
			}
			if err := provider.Send(ctx, c, msg); err != nil {
				d.log.Error().Err(err).Str("type", c.Type).Str("channel", c.Name).Msg("failed to send notification")
			}
		}(channel)
	}
	for range channels {
		<-done
	}
}
