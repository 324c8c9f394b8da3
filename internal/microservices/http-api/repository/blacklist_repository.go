package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// BlacklistRepository is the deny-list store for logged-out access tokens.
// Exists sits on the authentication hot path: implementations must surface
// storage faults instead of defaulting to "not blacklisted".
type BlacklistRepository interface {
	Add(token string, blacklistedAt time.Time) error
	Exists(token string) (bool, error)
	DeleteOlderThan(cutoff time.Time) error
}

// blacklistRepository is the GORM implementation of BlacklistRepository
type blacklistRepository struct {
	db *gorm.DB
}

// NewBlacklistRepository creates a new instance of BlacklistRepository
func NewBlacklistRepository(db *gorm.DB) BlacklistRepository {
	return &blacklistRepository{db: db}
}

// Add is idempotent: blacklisting a token that is already on the deny list
// keeps the earlier entry instead of tripping the unique index.
func (r *blacklistRepository) Add(token string, blacklistedAt time.Time) error {
	entry := &models.BlacklistedToken{
		ID:            uuid.New().String(),
		Token:         token,
		BlacklistedAt: blacklistedAt,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

func (r *blacklistRepository) Exists(token string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.BlacklistedToken{}).Where("token = ?", token).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteOlderThan: purges entries whose token has passed its natural expiry
// (cutoff = now - access token max lifetime)
func (r *blacklistRepository) DeleteOlderThan(cutoff time.Time) error {
	return r.db.Where("blacklisted_at < ?", cutoff).Delete(&models.BlacklistedToken{}).Error
}
