package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/config"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/repository"
)

// PasswordResetService issues single-use, rate-limited reset tokens and
// consumes them to change the user's credential.
type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
	CleanupExpiredTokens() error
}

type passwordResetService struct {
	repo          repository.PasswordResetTokenRepository
	userRepo      repository.UserRepository
	refreshTokens RefreshTokenService
	notifier      Notifier
	hasher        PasswordHasher
	generator     TokenGenerator
	ttl           time.Duration
	maxPerUser    int
	logger        *slog.Logger
}

// NewPasswordResetService wires the password reset manager.
func NewPasswordResetService(
	repo repository.PasswordResetTokenRepository,
	userRepo repository.UserRepository,
	refreshTokens RefreshTokenService,
	notifier Notifier,
	hasher PasswordHasher,
	generator TokenGenerator,
	cfg *config.Config,
	logger *slog.Logger,
) PasswordResetService {
	return &passwordResetService{
		repo:          repo,
		userRepo:      userRepo,
		refreshTokens: refreshTokens,
		notifier:      notifier,
		hasher:        hasher,
		generator:     generator,
		ttl:           cfg.PasswordResetTTL, // 1 hour
		maxPerUser:    cfg.MaxValidResetTokensPerUser,
		logger:        logger,
	}
}

// RequestReset starts a reset flow for the address. Unknown emails complete
// silently so the endpoint cannot be used to enumerate accounts.
func (s *passwordResetService) RequestReset(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deliberate silent no-op: unknown and known emails look identical
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user by email: %w", err)
	}

	count, err := s.repo.CountValidByUser(user.ID)
	if err != nil {
		return fmt.Errorf("count reset tokens: %w", err)
	}
	if count >= int64(s.maxPerUser) {
		return ErrTooManyResetRequests
	}

	// Only the newest token is ever consumable
	if err := s.repo.InvalidateAllByUser(user.ID); err != nil {
		return fmt.Errorf("invalidate previous reset tokens: %w", err)
	}

	tokenString, err := s.uniqueToken()
	if err != nil {
		return err
	}

	// Send before persist: a delivery failure must not leave a usable,
	// undelivered token behind.
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Username
	}
	if err := s.notifier.SendPasswordResetEmail(user.Email, tokenString, displayName); err != nil {
		s.logger.Error("password reset delivery failed", "user_id", user.ID, "error", err)
		return ErrDeliveryFailed
	}

	resetToken := &models.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(resetToken); err != nil {
		return fmt.Errorf("persist reset token: %w", err)
	}

	return nil
}

// ResetPassword consumes a reset token and changes the user's password.
// Every existing session of the user is revoked afterwards.
func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.repo.FindValidByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	// Expired rows are deleted on sight and reported exactly like absent ones
	if resetToken.IsExpired() {
		if err := s.repo.Delete(resetToken.ID); err != nil {
			s.logger.Warn("failed to delete expired reset token", "token_id", resetToken.ID, "error", err)
		}
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByID(resetToken.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup token owner: %w", err)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.Password = digest
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("persist new credential: %w", err)
	}

	resetToken.Used = true
	if err := s.repo.Update(resetToken); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	// A password change invalidates every existing session
	if err := s.refreshTokens.RevokeAllForUser(user.ID); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

// CleanupExpiredTokens bulk-deletes expired reset rows (scheduled maintenance entry point).
func (s *passwordResetService) CleanupExpiredTokens() error {
	return s.repo.DeleteExpired()
}

func (s *passwordResetService) uniqueToken() (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		tokenString, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate reset token: %w", err)
		}
		exists, err := s.repo.ExistsByToken(tokenString)
		if err != nil {
			return "", fmt.Errorf("check reset token uniqueness: %w", err)
		}
		if !exists {
			return tokenString, nil
		}
		s.logger.Warn("reset token collision, regenerating", "attempt", attempt+1)
	}
	return "", ErrTokenGeneration
}
