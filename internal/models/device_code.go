package models

import (
	"time"
)

// DeviceCode is a pending or approved device authorization. The row is deleted
// when the polling client consumes it, so there is no separate consumed state.
type DeviceCode struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	DeviceCode     string `gorm:"-"`                    // Not stored in DB, only for in-memory use
	DeviceCodeHash string `gorm:"uniqueIndex;not null"` // HMAC-SHA256 of the device code
	UserCode       string `gorm:"uniqueIndex;not null"` // Stored normalized, e.g. ABCD-1234
	DeviceID       string `gorm:"index;not null"`
	DeviceName     string
	Platform       string
	ExpiresAt      time.Time `gorm:"index;not null"`
	Interval       int       // polling interval in seconds

	// Set exactly once, in the same statement, on approval
	AuthorizedUserID *string `gorm:"index"`
	AuthorizedAt     *time.Time

	CreatedAt time.Time
}

func (d *DeviceCode) IsExpired() bool {
	return d.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the code is no longer usable at the given instant.
func (d *DeviceCode) ExpiredAt(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

func (d *DeviceCode) IsAuthorized() bool {
	return d.AuthorizedUserID != nil && d.AuthorizedAt != nil
}
