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
	"github.com/suhashines/teamsync-backend/internal/shared"
)

// maxGenerateAttempts bounds the uniqueness-retry loop. Exhausting it with
// 32 bytes of entropy means the store is lying, so it surfaces as an error
// rather than looping forever.
const maxGenerateAttempts = 5

// RefreshTokenService owns the lifecycle of refresh tokens: issuance with a
// per-user cap, in-place rotation, revocation, and expiry sweeps.
type RefreshTokenService interface {
	Issue(user *models.User) (string, error)
	Rotate(refreshToken string) (newAccessToken, newRefreshToken string, err error)
	Revoke(refreshToken string) error
	RevokeAllForUser(userID string) error
	IsValid(refreshToken string) (bool, error)
	CleanupExpired() error
}

type refreshTokenService struct {
	repo       repository.RefreshTokenRepository
	userRepo   repository.UserRepository
	signer     TokenSigner
	generator  TokenGenerator
	ttl        time.Duration
	maxPerUser int
	logger     *slog.Logger
}

// NewRefreshTokenService wires the refresh token manager.
func NewRefreshTokenService(
	repo repository.RefreshTokenRepository,
	userRepo repository.UserRepository,
	signer TokenSigner,
	generator TokenGenerator,
	cfg *config.Config,
	logger *slog.Logger,
) RefreshTokenService {
	return &refreshTokenService{
		repo:       repo,
		userRepo:   userRepo,
		signer:     signer,
		generator:  generator,
		ttl:        cfg.RefreshTokenTTL,  // 7 days
		maxPerUser: cfg.MaxRefreshTokensPerUser,
		logger:     logger,
	}
}

// Issue creates a new refresh token for the user and returns the raw
// identifier. The stored value is the credential itself, not a hash.
func (s *refreshTokenService) Issue(user *models.User) (string, error) {
	// Opportunistic store-wide sweep; a failed sweep never blocks issuance
	if err := s.repo.DeleteExpired(); err != nil {
		s.logger.Warn("expired refresh token sweep failed", "error", err)
	}

	// Enforce the per-user cap by revoking oldest-first down to cap-1.
	// Best-effort under concurrency: a race may briefly overshoot the cap,
	// the next issue converges back.
	count, err := s.repo.CountValidByUser(user.ID)
	if err != nil {
		return "", fmt.Errorf("count refresh tokens: %w", err)
	}
	if count >= int64(s.maxPerUser) {
		valid, err := s.repo.FindValidByUser(user.ID)
		if err != nil {
			return "", fmt.Errorf("list refresh tokens: %w", err)
		}
		evict := len(valid) - (s.maxPerUser - 1)
		for i := 0; i < evict && i < len(valid); i++ {
			if err := s.repo.Revoke(valid[i].ID); err != nil {
				return "", fmt.Errorf("evict refresh token: %w", err)
			}
			s.logger.Info("evicted oldest refresh token", "user_id", user.ID, "token_id", valid[i].ID)
		}
	}

	tokenString, err := s.uniqueToken()
	if err != nil {
		return "", err
	}

	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(refreshToken); err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}

	return refreshToken.Token, nil
}

// Rotate exchanges a presented refresh token for a fresh access token and a
// replacement refresh token. Rotation overwrites the same row, so a concurrent
// attempt with the stale identifier predictably fails lookup.
func (s *refreshTokenService) Rotate(refreshToken string) (string, string, error) {
	token, err := s.repo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", fmt.Errorf("lookup refresh token: %w", err)
	}

	// Expired rows are removed on sight; absent and expired look identical to the caller
	if token.IsExpired() {
		if err := s.repo.Delete(token.ID); err != nil {
			s.logger.Warn("failed to delete expired refresh token", "token_id", token.ID, "error", err)
		}
		return "", "", ErrInvalidToken
	}

	if token.Revoked {
		return "", "", ErrRevokedToken
	}

	user, err := s.userRepo.FindByID(token.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", fmt.Errorf("lookup token owner: %w", err)
	}

	accessToken, err := s.signer.Sign(shared.AuthClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	newTokenString, err := s.uniqueToken()
	if err != nil {
		return "", "", err
	}

	// Conditional write: only the row that still holds the presented token and
	// is unrevoked can be rotated. A revoke (or revoke-all) committing between
	// the lookup above and this write leaves zero rows affected; the session
	// must stay dead, never be resurrected by writing the stale copy back.
	rows, err := s.repo.Rotate(token.ID, refreshToken, newTokenString, time.Now().Add(s.ttl))
	if err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	if rows == 0 {
		current, lookupErr := s.repo.FindByToken(refreshToken)
		if lookupErr != nil {
			if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return "", "", ErrInvalidToken
			}
			return "", "", fmt.Errorf("lookup refresh token: %w", lookupErr)
		}
		if current.Revoked {
			return "", "", ErrRevokedToken
		}
		return "", "", ErrInvalidToken
	}

	return accessToken, newTokenString, nil
}

// Revoke marks the presented token revoked. Revoking an already revoked token
// is a data-level no-op; an already swept token reports ErrTokenNotFound.
func (s *refreshTokenService) Revoke(refreshToken string) error {
	token, err := s.repo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if err := s.repo.Revoke(token.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser invalidates every session of the user in one operation.
// Used by password reset and account-level security events.
func (s *refreshTokenService) RevokeAllForUser(userID string) error {
	if err := s.repo.RevokeAllByUser(userID); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

// IsValid reports whether the presented token is found, unrevoked and unexpired.
func (s *refreshTokenService) IsValid(refreshToken string) (bool, error) {
	token, err := s.repo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup refresh token: %w", err)
	}
	return !token.Revoked && !token.IsExpired(), nil
}

// CleanupExpired bulk-deletes every expired row (scheduled maintenance entry point).
func (s *refreshTokenService) CleanupExpired() error {
	return s.repo.DeleteExpired()
}

// uniqueToken generates an identifier and verifies store non-existence,
// retrying on collision within a fixed bound.
func (s *refreshTokenService) uniqueToken() (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		tokenString, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate refresh token: %w", err)
		}
		exists, err := s.repo.ExistsByToken(tokenString)
		if err != nil {
			return "", fmt.Errorf("check refresh token uniqueness: %w", err)
		}
		if !exists {
			return tokenString, nil
		}
		s.logger.Warn("refresh token collision, regenerating", "attempt", attempt+1)
	}
	return "", ErrTokenGeneration
}
