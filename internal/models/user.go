package models

import (
	"time"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleBlocked = "blocked"
)

type User struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`
	Role  string `gorm:"not null;default:'user'" json:"role"` // "admin", "user" or "blocked"

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBlocked returns true if the account may not obtain or renew credentials
func (u *User) IsBlocked() bool {
	return u.Role == RoleBlocked
}
