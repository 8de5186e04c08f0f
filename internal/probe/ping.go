package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-ping/ping"

	"watchpost/internal/models"
)

// PingProber performs ICMP reachability checks for monitors of kind "ip".
type PingProber struct {
	timeout time.Duration
	count   int
}

// NewPingProber creates an ICMP prober.
func NewPingProber(timeout time.Duration) *PingProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PingProber{timeout: timeout, count: 4}
}

// Kind returns the monitor kind this prober handles
func (p *PingProber) Kind() string {
	return models.KindIP
}

// Validate validates the monitor configuration
func (p *PingProber) Validate(monitor *models.Monitor) error {
	if pingHost(monitor.URL) == "" {
		return fmt.Errorf("host is required for ip monitor")
	}
	return nil
}

// Probe pings the host and reports up/down with the average round-trip
// time. More than 50% packet loss counts as down.
func (p *PingProber) Probe(ctx context.Context, monitor *models.Monitor) *Result {
	result := &Result{Status: models.StatusDown}

	host := pingHost(monitor.URL)
	if host == "" {
		result.ErrorMessage = strPtr("No host specified")
		return result
	}

	pinger, err := ping.NewPinger(host)
	if err != nil {
		result.ErrorMessage = strPtr(fmt.Sprintf("Failed to create pinger: %v", err))
		return result
	}

	pinger.Count = p.count
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(false) // unprivileged UDP mode

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		result.ErrorMessage = strPtr("Ping cancelled")
		return result
	case err := <-done:
		if err != nil {
			result.ErrorMessage = strPtr(fmt.Sprintf("Ping failed: %v", err))
			return result
		}
	}

	stats := pinger.Statistics()
	result.ResponseTime = stats.AvgRtt.Milliseconds()

	if stats.PacketsRecv == 0 {
		result.ErrorMessage = strPtr("No packets received (100% packet loss)")
		return result
	}

	if stats.PacketLoss > 50 {
		result.ErrorMessage = strPtr(fmt.Sprintf("High packet loss: %.1f%%", stats.PacketLoss))
		return result
	}

	result.Status = models.StatusUp
	return result
}

// pingHost accepts either a bare host/IP or a URL and returns the host.
func pingHost(target string) string {
	if strings.Contains(target, "://") {
		if parsed, err := url.Parse(target); err == nil {
			return parsed.Hostname()
		}
	}
	host := target
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}
