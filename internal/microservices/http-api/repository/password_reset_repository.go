package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// PasswordResetTokenRepository handles database operations for password reset tokens
type PasswordResetTokenRepository interface {
	Create(token *models.PasswordResetToken) error
	FindValidByToken(tokenString string) (*models.PasswordResetToken, error)
	ExistsByToken(tokenString string) (bool, error)
	Update(token *models.PasswordResetToken) error
	CountValidByUser(userID string) (int64, error)
	InvalidateAllByUser(userID string) error
	Delete(tokenID string) error
	DeleteExpired() error
}

// passwordResetTokenRepository is the GORM implementation of PasswordResetTokenRepository
type passwordResetTokenRepository struct {
	db *gorm.DB
}

// NewPasswordResetTokenRepository creates a new instance of PasswordResetTokenRepository
func NewPasswordResetTokenRepository(db *gorm.DB) PasswordResetTokenRepository {
	return &passwordResetTokenRepository{db: db}
}

func (r *passwordResetTokenRepository) Create(token *models.PasswordResetToken) error {
	return r.db.Create(token).Error
}

// FindValidByToken: look up an unconsumed token by its token string.
// Expiry is checked by the caller so it can delete the stale row.
func (r *passwordResetTokenRepository) FindValidByToken(tokenString string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.db.Where("token = ? AND used = ?", tokenString, false).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ExistsByToken: existence check used by the uniqueness-retry loop
func (r *passwordResetTokenRepository) ExistsByToken(tokenString string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PasswordResetToken{}).Where("token = ?", tokenString).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update: persists the used flag (one-way transition)
func (r *passwordResetTokenRepository) Update(token *models.PasswordResetToken) error {
	return r.db.Save(token).Error
}

// CountValidByUser: counts the user's unconsumed, unexpired tokens (rate-limit input)
func (r *passwordResetTokenRepository) CountValidByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used = ? AND expires_at > ?", userID, false, time.Now()).
		Count(&count).Error
	return count, err
}

// InvalidateAllByUser: marks the user's outstanding tokens used, so only the
// most recently requested token is ever consumable
func (r *passwordResetTokenRepository) InvalidateAllByUser(userID string) error {
	return r.db.Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

// Delete: removes a reset token, used when a stale row is found on the request path
func (r *passwordResetTokenRepository) Delete(tokenID string) error {
	return r.db.Where("id = ?", tokenID).Delete(&models.PasswordResetToken{}).Error
}

// DeleteExpired: bulk-removes every token past its expiry (periodic sweep)
func (r *passwordResetTokenRepository) DeleteExpired() error {
	return r.db.Where("expires_at < ?", time.Now()).Delete(&models.PasswordResetToken{}).Error
}
