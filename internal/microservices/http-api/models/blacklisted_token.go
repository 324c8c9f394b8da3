package models

import (
	"time"
)

// BlacklistedToken records an access token that was logged out before its
// natural expiry. Presence alone is enough to reject the token; rows are kept
// until the access-token lifetime has passed and then swept.
type BlacklistedToken struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Token         string    `gorm:"uniqueIndex;not null" json:"token"`
	BlacklistedAt time.Time `gorm:"not null;index" json:"blacklisted_at"`
}

func (BlacklistedToken) TableName() string {
	return "blacklisted_tokens"
}
