package models

import (
	"time"
)

// PasswordResetToken is a single-use, short-lived credential mailed to a user.
// Used is a one-way transition: once consumed the row stays consumed.
type PasswordResetToken struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Used      bool      `gorm:"default:false" json:"used"`
}

// IsExpired reports whether the token is past its expiry.
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
