package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Monitor kinds
const (
	KindWebsite = "website"
	KindIP      = "ip"
)

// Check interval bounds in seconds
const (
	MinInterval = 30
	MaxInterval = 3600
)

// Monitor represents a user-configured target to watch
type Monitor struct {
	ID              uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          uint              `json:"user_id" gorm:"not null;index"`
	Name            string            `json:"name" gorm:"not null"`
	Kind            string            `json:"kind" gorm:"not null;index;default:'website'"`
	URL             string            `json:"url" gorm:"not null"`
	Method          string            `json:"method" gorm:"default:'GET'"`
	Headers         map[string]string `json:"headers" gorm:"-"`
	HeadersRaw      string            `json:"-" gorm:"column:headers;type:text"`
	Params          map[string]string `json:"params" gorm:"-"`
	ParamsRaw       string            `json:"-" gorm:"column:params;type:text"`
	ContentCheck    bool              `json:"content_check" gorm:"default:false"`
	ExpectedTitle   string            `json:"expected_title"`
	ExpectedContent string            `json:"expected_content"`
	Active          bool              `json:"active" gorm:"default:true;index"`
	Interval        int               `json:"interval" gorm:"default:60"` // seconds

	// Populated by the domain sweep, not by the status engine.
	DomainExpiresAt *time.Time `json:"domain_expires_at"`
	DomainDaysLeft  *int       `json:"domain_days_left"`
	DomainError     *string    `json:"domain_error"`
	DomainCheckedAt *time.Time `json:"domain_checked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships (optional, for eager loading)
	Checks    []Check    `json:"-" gorm:"foreignKey:MonitorID"`
	Downtimes []Downtime `json:"-" gorm:"foreignKey:MonitorID"`
}

// TableName specifies the table name for Monitor
func (Monitor) TableName() string {
	return "monitors"
}

// BeforeSave marshals the header and parameter maps to JSON (GORM hook)
func (m *Monitor) BeforeSave(tx *gorm.DB) error {
	if m.Headers != nil {
		raw, err := json.Marshal(m.Headers)
		if err != nil {
			return err
		}
		m.HeadersRaw = string(raw)
	}
	if m.Params != nil {
		raw, err := json.Marshal(m.Params)
		if err != nil {
			return err
		}
		m.ParamsRaw = string(raw)
	}
	return nil
}

// AfterFind unmarshals the header and parameter JSON after loading (GORM hook)
func (m *Monitor) AfterFind(tx *gorm.DB) error {
	if m.HeadersRaw != "" {
		if err := json.Unmarshal([]byte(m.HeadersRaw), &m.Headers); err != nil {
			return err
		}
	}
	if m.ParamsRaw != "" {
		if err := json.Unmarshal([]byte(m.ParamsRaw), &m.Params); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the monitor configuration. Content validation requires at
// least one of expected title/content; this is a creation-time rule, the
// status engine does not re-check it.
func (m *Monitor) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.URL == "" {
		return fmt.Errorf("URL is required")
	}
	if m.Kind != KindWebsite && m.Kind != KindIP {
		return fmt.Errorf("unknown monitor kind: %s", m.Kind)
	}
	if m.Method != "" && m.Method != "GET" && m.Method != "POST" {
		return fmt.Errorf("method must be GET or POST")
	}
	if m.Interval < MinInterval || m.Interval > MaxInterval {
		return fmt.Errorf("interval must be between %d and %d seconds", MinInterval, MaxInterval)
	}
	if m.ContentCheck && m.ExpectedTitle == "" && m.ExpectedContent == "" {
		return fmt.Errorf("content check requires an expected title or expected content")
	}
	return nil
}
