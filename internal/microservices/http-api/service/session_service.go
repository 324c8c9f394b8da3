package service

import (
	"errors"
	"log/slog"
	"strings"
)

// AuthContext is the request-scoped identity holder. Logout clears it so no
// stale caller identity survives the request, whatever else happens.
type AuthContext interface {
	Clear()
}

// SessionService coordinates full session teardown: refresh token revocation,
// access token blacklisting, and auth-context clearing.
type SessionService interface {
	Logout(refreshToken, accessToken string, authCtx AuthContext) error
}

type sessionService struct {
	refreshTokens RefreshTokenService
	blacklist     BlacklistService
	logger        *slog.Logger
}

// NewSessionService wires the logout coordinator.
func NewSessionService(refreshTokens RefreshTokenService, blacklist BlacklistService, logger *slog.Logger) SessionService {
	return &sessionService{
		refreshTokens: refreshTokens,
		blacklist:     blacklist,
		logger:        logger,
	}
}

// Logout revokes the refresh token (if given), blacklists the access token
// (if given), and always clears the auth context. Logging out an already
// revoked or swept session is not an error. Both teardown steps are always
// attempted: a failing revoke must not leave the access token usable.
func (s *sessionService) Logout(refreshToken, accessToken string, authCtx AuthContext) error {
	if authCtx != nil {
		defer authCtx.Clear()
	}

	var errs []error

	if strings.TrimSpace(refreshToken) != "" {
		if err := s.refreshTokens.Revoke(refreshToken); err != nil {
			if !errors.Is(err, ErrTokenNotFound) {
				errs = append(errs, err)
			} else {
				s.logger.Debug("logout presented an unknown refresh token")
			}
		}
	}

	if strings.TrimSpace(accessToken) != "" {
		if err := s.blacklist.Blacklist(accessToken); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
