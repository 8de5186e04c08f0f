package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"watchpost/internal/models"
	"watchpost/internal/probe"
)

// Store wraps the database with the typed operations the engine, jobs, and
// API need. Lookups that find nothing return (nil, nil).
type Store struct {
	db *gorm.DB
}

// New creates a store on top of an open GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// MonitorByID loads a monitor.
func (s *Store) MonitorByID(ctx context.Context, id uint) (*models.Monitor, error) {
	var monitor models.Monitor
	err := s.db.WithContext(ctx).First(&monitor, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &monitor, nil
}

// Monitors lists all monitors.
func (s *Store) Monitors(ctx context.Context) ([]*models.Monitor, error) {
	var monitors []*models.Monitor
	err := s.db.WithContext(ctx).Order("id").Find(&monitors).Error
	return monitors, err
}

// ActiveMonitors lists all active monitors.
func (s *Store) ActiveMonitors(ctx context.Context) ([]*models.Monitor, error) {
	var monitors []*models.Monitor
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&monitors).Error
	return monitors, err
}

// ActiveHTTPSMonitors lists active monitors whose URL uses the https scheme.
func (s *Store) ActiveHTTPSMonitors(ctx context.Context) ([]*models.Monitor, error) {
	var monitors []*models.Monitor
	err := s.db.WithContext(ctx).
		Where("active = ? AND url LIKE ?", true, "https://%").
		Order("id").
		Find(&monitors).Error
	return monitors, err
}

// DueMonitors selects active monitors whose latest check is absent or at
// least one interval old.
func (s *Store) DueMonitors(ctx context.Context, now time.Time) ([]*models.Monitor, error) {
	query := `
		SELECT m.* FROM monitors m
		WHERE m.active = true
		AND NOT EXISTS (
			SELECT 1 FROM checks c
			WHERE c.monitor_id = m.id
			AND c.checked_at > ? - make_interval(secs => m.interval)
		)
		ORDER BY m.id
	`
	var monitors []*models.Monitor
	err := s.db.WithContext(ctx).Raw(query, now).Scan(&monitors).Error
	if err != nil {
		return nil, err
	}
	// Raw scans bypass the AfterFind hook.
	for _, m := range monitors {
		if err := m.AfterFind(nil); err != nil {
			return nil, err
		}
	}
	return monitors, nil
}

// CreateMonitor persists a new monitor after validation.
func (s *Store) CreateMonitor(ctx context.Context, monitor *models.Monitor) error {
	if err := monitor.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(monitor).Error
}

// DeleteMonitor removes a monitor and cascades to its checks and downtimes.
func (s *Store) DeleteMonitor(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("monitor_id = ?", id).Delete(&models.Check{}).Error; err != nil {
			return err
		}
		if err := tx.Where("monitor_id = ?", id).Delete(&models.Downtime{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Monitor{}, id).Error
	})
}

// CreateCheck persists one probe attempt.
func (s *Store) CreateCheck(ctx context.Context, check *models.Check) error {
	return s.db.WithContext(ctx).Create(check).Error
}

// LatestCheck returns the most recent check for a monitor.
func (s *Store) LatestCheck(ctx context.Context, monitorID uint) (*models.Check, error) {
	var check models.Check
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// Checks returns recent checks for a monitor, newest first.
func (s *Store) Checks(ctx context.Context, monitorID uint, limit int) ([]*models.Check, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var checks []*models.Check
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Limit(limit).
		Find(&checks).Error
	return checks, err
}

// AttachCertResult writes certificate fields onto an existing check row.
func (s *Store) AttachCertResult(ctx context.Context, checkID uint, res *probe.CertResult) error {
	updates := map[string]interface{}{
		"cert_valid":     res.Valid,
		"cert_issuer":    res.Issuer,
		"cert_days_left": res.DaysLeft,
		"cert_error":     res.ErrorMessage,
	}
	if !res.ValidFrom.IsZero() {
		updates["cert_from"] = res.ValidFrom
	}
	if !res.ValidTo.IsZero() {
		updates["cert_to"] = res.ValidTo
	}
	return s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("id = ?", checkID).
		Updates(updates).Error
}

// SetDomainStatus writes the WHOIS sweep outcome onto the monitor row.
func (s *Store) SetDomainStatus(ctx context.Context, monitorID uint, res *probe.DomainResult, checkedAt time.Time) error {
	updates := map[string]interface{}{
		"domain_expires_at": res.ExpiresAt,
		"domain_days_left":  res.DaysLeft,
		"domain_error":      res.ErrorMessage,
		"domain_checked_at": checkedAt,
	}
	return s.db.WithContext(ctx).
		Model(&models.Monitor{}).
		Where("id = ?", monitorID).
		Updates(updates).Error
}

// OpenDowntime returns the monitor's ongoing downtime, if any.
func (s *Store) OpenDowntime(ctx context.Context, monitorID uint) (*models.Downtime, error) {
	var dt models.Downtime
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND ended_at IS NULL", monitorID).
		First(&dt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dt, nil
}

// CreateDowntime opens a new downtime interval.
func (s *Store) CreateDowntime(ctx context.Context, dt *models.Downtime) error {
	return s.db.WithContext(ctx).Create(dt).Error
}

// SaveDowntime persists downtime mutations (re-notification, close).
func (s *Store) SaveDowntime(ctx context.Context, dt *models.Downtime) error {
	return s.db.WithContext(ctx).Save(dt).Error
}

// Downtimes returns recent downtimes for a monitor, newest first.
func (s *Store) Downtimes(ctx context.Context, monitorID uint, limit int) ([]*models.Downtime, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var downtimes []*models.Downtime
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("started_at DESC").
		Limit(limit).
		Find(&downtimes).Error
	return downtimes, err
}

// ActiveChannels lists active notification channels.
func (s *Store) ActiveChannels(ctx context.Context) ([]*models.NotificationChannel, error) {
	var channels []*models.NotificationChannel
	err := s.db.WithContext(ctx).Where("active = ?", true).Find(&channels).Error
	return channels, err
}

// GetSetting returns a setting value, or fallback when the key is absent.
func (s *Store) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return setting.Value, nil
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.WithContext(ctx).Save(&setting).Error
}

// DeleteChecksBefore removes checks older than the cutoff; returns rows removed.
func (s *Store) DeleteChecksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("checked_at < ?", cutoff).Delete(&models.Check{})
	return res.RowsAffected, res.Error
}

// DeleteClosedDowntimesBefore removes closed downtimes that ended before
// the cutoff; open downtimes are never touched.
func (s *Store) DeleteClosedDowntimesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("ended_at IS NOT NULL AND ended_at < ?", cutoff).
		Delete(&models.Downtime{})
	return res.RowsAffected, res.Error
}
