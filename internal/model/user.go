// Package model defines database models
package model

import (
	"bitwise74/bucket-panel/pkg/permission"
	"time"
)

type User struct {
	ID              string            `gorm:"primaryKey" json:"id"`
	Name            string            `gorm:"not null" json:"name"`
	Email           string            `gorm:"uniqueIndex;not null" json:"email"` // Always stored lower case
	Role            permission.Role   `gorm:"not null;default:editor" json:"role"`
	Status          permission.Status `gorm:"not null;default:invited" json:"status"`
	Permissions     StringSlice       `json:"permissions"`
	PasswordHash    string            `gorm:"not null" json:"-"`
	CreatedAt       time.Time         `json:"createdAt"`
	LastAccessAt    *time.Time        `json:"lastAccessAt"`
	TermsAcceptedAt *time.Time        `json:"termsAcceptedAt"`
}

// Granted returns the user's permissions limited to the known vocabulary
func (u *User) Granted() []permission.Permission {
	return permission.Normalize(u.Permissions)
}
