package models

import (
	"time"
)

// RefreshToken is one session credential. The Token column holds the raw opaque
// identifier handed to the client: the stored value IS the credential, so the
// table must be treated as secret material.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	// Seq gives a strict insertion order; created_at alone can tie at the
	// database's timestamp resolution and the uuid ID sorts randomly.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex" json:"-"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

// IsExpired reports whether the token is past its expiry.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
