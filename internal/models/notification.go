package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// NotificationChannel is a configured delivery target (webhook, slack,
// telegram). Provider-specific settings live in the Config map and are
// stored as JSON.
type NotificationChannel struct {
	ID        uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint              `json:"user_id" gorm:"not null;index"`
	Name      string            `json:"name" gorm:"not null"`
	Type      string            `json:"type" gorm:"not null"` // webhook, slack, telegram
	Config    map[string]string `json:"config" gorm:"-"`
	ConfigRaw string            `json:"-" gorm:"column:config;type:text"`
	IsDefault bool              `json:"is_default" gorm:"default:false"`
	Active    bool              `json:"active" gorm:"default:true;index"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName specifies the table name for NotificationChannel
func (NotificationChannel) TableName() string {
	return "notification_channels"
}

// BeforeSave marshals the provider config to JSON (GORM hook)
func (n *NotificationChannel) BeforeSave(tx *gorm.DB) error {
	if n.Config != nil {
		raw, err := json.Marshal(n.Config)
		if err != nil {
			return err
		}
		n.ConfigRaw = string(raw)
	}
	return nil
}

// AfterFind unmarshals the provider config after loading (GORM hook)
func (n *NotificationChannel) AfterFind(tx *gorm.DB) error {
	if n.ConfigRaw != "" {
		return json.Unmarshal([]byte(n.ConfigRaw), &n.Config)
	}
	return nil
}
