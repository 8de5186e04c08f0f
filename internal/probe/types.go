package probe

import (
	"context"
	"time"

	"watchpost/internal/models"
)

// Prober performs one probe attempt against a monitor. Implementations are
// total: every failure mode resolves into a Result, never an error.
type Prober interface {
	// Kind returns the monitor kind this prober handles (e.g. "website", "ip")
	Kind() string

	// Probe performs the check and returns a result
	Probe(ctx context.Context, monitor *models.Monitor) *Result

	// Validate validates the monitor configuration for this kind
	Validate(monitor *models.Monitor) error
}

// Result is the outcome of one probe attempt, ready to be persisted as a
// Check row.
type Result struct {
	Status       string
	ResponseTime int64 // milliseconds, measured regardless of outcome
	StatusCode   *int
	Body         string
	ErrorMessage *string
	ContentValid *bool // nil when content validation is not applicable
}

// Up reports whether the probe considered the target up.
func (r *Result) Up() bool {
	return r.Status == models.StatusUp
}

// ExpiringSoon reports whether a days-until-expiry value is inside the
// 30-day warning window.
func ExpiringSoon(days *int) bool {
	return days != nil && *days <= 30
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

// daysUntil returns whole days from now to t, clamped at zero.
func daysUntil(now, t time.Time) int {
	days := int(t.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
