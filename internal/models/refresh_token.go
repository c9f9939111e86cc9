package models

import (
	"time"
)

// RefreshToken is the persisted half of a token pair. Only the keyed hash of the
// raw value is stored. Rows are never deleted; RevokedAt is set at most once.
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)"`
	TokenHash string     `gorm:"uniqueIndex;not null"`
	RawToken  string     `gorm:"-"` // In-memory only; never persisted to DB
	UserID    string     `gorm:"not null;index"`
	DeviceID  string     `gorm:"not null;index"`
	ParentID  string     `gorm:"index"` // Predecessor in the rotation chain
	ExpiresAt time.Time  `gorm:"not null"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (t *RefreshToken) IsExpired() bool {
	return t.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the token is past its absolute expiry at now.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
