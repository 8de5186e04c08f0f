package models

import "time"

// Downtime is a contiguous interval during which a monitor was considered
// down. EndedAt is nil while the outage is ongoing. At most one open
// Downtime may exist per monitor; the engine serializes per-monitor
// processing to maintain this, and the schema carries a partial unique
// index as a safety net.
type Downtime struct {
	ID              uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	MonitorID       uint       `json:"monitor_id" gorm:"not null;index"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *int64     `json:"duration_seconds"`
	LastNotifiedAt  time.Time  `json:"last_notified_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for Downtime
func (Downtime) TableName() string {
	return "downtimes"
}

// Open reports whether the downtime is still ongoing.
func (d *Downtime) Open() bool {
	return d.EndedAt == nil
}

// Close marks the downtime as ended and computes its duration in whole
// seconds, clamped at zero.
func (d *Downtime) Close(endedAt time.Time) {
	end := endedAt
	d.EndedAt = &end
	secs := int64(end.Sub(d.StartedAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	d.DurationSeconds = &secs
}

// Duration returns the downtime length, using now for an open interval.
func (d *Downtime) Duration(now time.Time) time.Duration {
	if d.EndedAt != nil {
		return d.EndedAt.Sub(d.StartedAt)
	}
	return now.Sub(d.StartedAt)
}
