package models

import "time"

// Check statuses
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// MaxBodyLength is the cap applied to stored response bodies.
const MaxBodyLength = 5000

// Check is an immutable snapshot of one probe attempt. The only mutation
// after creation is the certificate sweep attaching its fields to the
// latest Check of a monitor.
type Check struct {
	ID           uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	MonitorID    uint    `json:"monitor_id" gorm:"not null;index"`
	Status       string  `json:"status" gorm:"not null;index"`
	ResponseTime *int64  `json:"response_time"` // milliseconds
	StatusCode   *int    `json:"status_code"`
	Body         *string `json:"body" gorm:"type:text"`
	ErrorMessage *string `json:"error_message" gorm:"type:text"`
	ContentValid *bool   `json:"content_valid"` // nil = not applicable

	// Certificate fields, written by the SSL sweep.
	CertValid    *bool      `json:"cert_valid"`
	CertIssuer   *string    `json:"cert_issuer"`
	CertFrom     *time.Time `json:"cert_from"`
	CertTo       *time.Time `json:"cert_to"`
	CertDaysLeft *int       `json:"cert_days_left"`
	CertError    *string    `json:"cert_error"`

	CheckedAt time.Time `json:"checked_at" gorm:"not null;index"`
}

// TableName specifies the table name for Check
func (Check) TableName() string {
	return "checks"
}

// TruncateBody caps a response body for storage.
func TruncateBody(body string) string {
	if len(body) > MaxBodyLength {
		return body[:MaxBodyLength]
	}
	return body
}
