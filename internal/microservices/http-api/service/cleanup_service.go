package service

import (
	"context"
	"log/slog"
	"time"
)

// CleanupService runs the periodic sweeps. Each sweep is one bulk statement,
// independent of the request path; a failing sweep is logged and retried on
// the next tick rather than aborting the loop.
type CleanupService struct {
	refreshTokens  RefreshTokenService
	resetTokens    PasswordResetService
	blacklist      BlacklistService
	accessTokenTTL time.Duration
	logger         *slog.Logger
}

// NewCleanupService wires the maintenance sweeps.
func NewCleanupService(
	refreshTokens RefreshTokenService,
	resetTokens PasswordResetService,
	blacklist BlacklistService,
	accessTokenTTL time.Duration,
	logger *slog.Logger,
) *CleanupService {
	return &CleanupService{
		refreshTokens:  refreshTokens,
		resetTokens:    resetTokens,
		blacklist:      blacklist,
		accessTokenTTL: accessTokenTTL,
		logger:         logger,
	}
}

// SweepExpiredRefreshTokens deletes refresh tokens past their expiry.
func (s *CleanupService) SweepExpiredRefreshTokens() error {
	return s.refreshTokens.CleanupExpired()
}

// SweepExpiredResetTokens deletes reset tokens past their expiry.
func (s *CleanupService) SweepExpiredResetTokens() error {
	return s.resetTokens.CleanupExpiredTokens()
}

// SweepOldBlacklistEntries purges blacklist entries older than the given age.
// Entries must outlive the access-token max lifetime so a blocked token can
// never come back to life.
func (s *CleanupService) SweepOldBlacklistEntries(olderThan time.Duration) error {
	return s.blacklist.CleanupOldEntries(olderThan)
}

// Run executes all sweeps on the given interval until the context is cancelled.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("token cleanup loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token cleanup loop stopped")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *CleanupService) runOnce() {
	if err := s.SweepExpiredRefreshTokens(); err != nil {
		s.logger.Error("refresh token sweep failed", "error", err)
	}
	if err := s.SweepExpiredResetTokens(); err != nil {
		s.logger.Error("reset token sweep failed", "error", err)
	}
	if err := s.SweepOldBlacklistEntries(s.accessTokenTTL); err != nil {
		s.logger.Error("blacklist sweep failed", "error", err)
	}
}
