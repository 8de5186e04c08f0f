package uptime

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Calculator computes uptime statistics from check history.
type Calculator struct {
	db *gorm.DB
}

// NewCalculator creates a new uptime calculator
func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{db: db}
}

// Stats represents uptime statistics for a monitor over a window.
type Stats struct {
	MonitorID        uint    `json:"monitor_id"`
	UptimePercentage float64 `json:"uptime_percentage"`
	TotalChecks      int     `json:"total_checks"`
	UpChecks         int     `json:"up_checks"`
	DownChecks       int     `json:"down_checks"`
	AverageLatency   float64 `json:"average_latency_ms"`
	DowntimeSeconds  int64   `json:"downtime_seconds"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
}

// Last24Hours calculates uptime for the last 24 hours
func (c *Calculator) Last24Hours(ctx context.Context, monitorID uint) (*Stats, error) {
	return c.ForPeriod(ctx, monitorID, 24*time.Hour)
}

// Last7Days calculates uptime for the last 7 days
func (c *Calculator) Last7Days(ctx context.Context, monitorID uint) (*Stats, error) {
	return c.ForPeriod(ctx, monitorID, 7*24*time.Hour)
}

// Last30Days calculates uptime for the last 30 days
func (c *Calculator) Last30Days(ctx context.Context, monitorID uint) (*Stats, error) {
	return c.ForPeriod(ctx, monitorID, 30*24*time.Hour)
}

// Last90Days calculates uptime for the last 90 days
func (c *Calculator) Last90Days(ctx context.Context, monitorID uint) (*Stats, error) {
	return c.ForPeriod(ctx, monitorID, 90*24*time.Hour)
}

// ForPeriod calculates uptime over the trailing window ending now.
func (c *Calculator) ForPeriod(ctx context.Context, monitorID uint, window time.Duration) (*Stats, error) {
	endTime := time.Now()
	startTime := endTime.Add(-window)

	var counts struct {
		TotalChecks    int     `gorm:"column:total_checks"`
		UpChecks       int     `gorm:"column:up_checks"`
		DownChecks     int     `gorm:"column:down_checks"`
		AverageLatency float64 `gorm:"column:average_latency"`
	}
	err := c.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_checks,
			COUNT(*) FILTER (WHERE status = 'up') AS up_checks,
			COUNT(*) FILTER (WHERE status = 'down') AS down_checks,
			COALESCE(AVG(response_time) FILTER (WHERE status = 'up'), 0) AS average_latency
		FROM checks
		WHERE monitor_id = ? AND checked_at >= ? AND checked_at <= ?
	`, monitorID, startTime, endTime).Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	var downtime struct {
		Seconds int64 `gorm:"column:seconds"`
	}
	err = c.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(
			EXTRACT(EPOCH FROM LEAST(COALESCE(ended_at, ?), ?) - GREATEST(started_at, ?))
		), 0)::bigint AS seconds
		FROM downtimes
		WHERE monitor_id = ?
		AND started_at <= ?
		AND (ended_at IS NULL OR ended_at >= ?)
	`, endTime, endTime, startTime, monitorID, endTime, startTime).Scan(&downtime).Error
	if err != nil {
		return nil, err
	}

	uptimePercentage := 0.0
	if counts.TotalChecks > 0 {
		uptimePercentage = float64(counts.UpChecks) / float64(counts.TotalChecks) * 100
	}

	return &Stats{
		MonitorID:        monitorID,
		UptimePercentage: uptimePercentage,
		TotalChecks:      counts.TotalChecks,
		UpChecks:         counts.UpChecks,
		DownChecks:       counts.DownChecks,
		AverageLatency:   counts.AverageLatency,
		DowntimeSeconds:  downtime.Seconds,
		StartTime:        startTime.Format(time.RFC3339),
		EndTime:          endTime.Format(time.RFC3339),
	}, nil
}
