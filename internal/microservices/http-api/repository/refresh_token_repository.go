package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository interface {
	Create(refreshToken *models.RefreshToken) error
	FindByToken(tokenString string) (*models.RefreshToken, error)
	ExistsByToken(tokenString string) (bool, error)
	Rotate(tokenID, oldToken, newToken string, expiresAt time.Time) (int64, error)
	Revoke(tokenID string) error
	RevokeAllByUser(userID string) error
	CountValidByUser(userID string) (int64, error)
	FindValidByUser(userID string) ([]models.RefreshToken, error)
	Delete(tokenID string) error
	DeleteExpired() error
}

// refreshTokenRepository is the GORM implementation of RefreshTokenRepository
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create: creates a new refresh token for a user with a specified TTL
func (r *refreshTokenRepository) Create(refreshToken *models.RefreshToken) error {
	return r.db.Create(refreshToken).Error
}

// FindByToken: look up the refresh token by its token string
func (r *refreshTokenRepository) FindByToken(tokenString string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.Where("token = ?", tokenString).First(&refreshToken).Error; err != nil {
		return nil, err
	}
	return &refreshToken, nil
}

// ExistsByToken: existence check used by the uniqueness-retry loop on issue/rotate
func (r *refreshTokenRepository) ExistsByToken(tokenString string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.RefreshToken{}).Where("token = ?", tokenString).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rotate: swaps the token string and expiry on the same row, but only while the
// row still holds the presented token and is unrevoked. A revoke that commits
// between the caller's read and this write makes the condition fail; the
// returned row count lets the caller observe the lost race instead of silently
// resurrecting the session.
func (r *refreshTokenRepository) Rotate(tokenID, oldToken, newToken string, expiresAt time.Time) (int64, error) {
	res := r.db.Model(&models.RefreshToken{}).
		Where("id = ? AND token = ? AND revoked = ?", tokenID, oldToken, false).
		Updates(map[string]interface{}{"token": newToken, "expires_at": expiresAt})
	return res.RowsAffected, res.Error
}

// Revoke: marks a refresh token as revoked
func (r *refreshTokenRepository) Revoke(tokenID string) error {
	return r.db.Model(&models.RefreshToken{}).Where("id = ?", tokenID).Update("revoked", true).Error
}

// RevokeAllByUser: marks every refresh token owned by the user as revoked in one UPDATE
func (r *refreshTokenRepository) RevokeAllByUser(userID string) error {
	return r.db.Model(&models.RefreshToken{}).Where("user_id = ?", userID).Update("revoked", true).Error
}

// CountValidByUser: counts the user's non-revoked, non-expired tokens
func (r *refreshTokenRepository) CountValidByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Count(&count).Error
	return count, err
}

// FindValidByUser: the user's valid tokens in insertion order (eviction order)
func (r *refreshTokenRepository) FindValidByUser(userID string) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Order("seq asc").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Delete: removes a refresh token from the database
// used when a stale token is found on the request path
func (r *refreshTokenRepository) Delete(tokenID string) error {
	return r.db.Where("id = ?", tokenID).Delete(&models.RefreshToken{}).Error
}

// DeleteExpired: bulk-removes every token past its expiry (periodic sweep)
func (r *refreshTokenRepository) DeleteExpired() error {
	return r.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
