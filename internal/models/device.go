package models

import (
	"time"
)

// Device is one client installation. DeviceID is generated by the client and
// is stable per install; UserID is the current owner and may change when the
// installation is claimed by another account.
type Device struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"-"`
	DeviceID   string    `gorm:"uniqueIndex;not null" json:"device_id"`
	UserID     string    `gorm:"not null;index" json:"-"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	IsActive   bool      `gorm:"not null;default:true;index" json:"is_active"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"-"`
}
