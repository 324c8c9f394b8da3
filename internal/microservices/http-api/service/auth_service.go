package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/repository"
	"github.com/suhashines/teamsync-backend/internal/shared"
)

// AuthService is the login-side entry point: it authenticates a user against
// the stored credential and issues the access/refresh token pair. Access-token
// validation also consults the blacklist, so a logged-out token is rejected
// even while its signature is still valid.
type AuthService interface {
	Login(username, password string) (accessToken, refreshToken string, user *models.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo      repository.UserRepository
	refreshTokens RefreshTokenService
	signer        TokenSigner
	blacklist     BlacklistService
	hasher        PasswordHasher
}

// NewAuthService wires the login/validation service.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokens RefreshTokenService,
	signer TokenSigner,
	blacklist BlacklistService,
	hasher PasswordHasher,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		refreshTokens: refreshTokens,
		signer:        signer,
		blacklist:     blacklist,
		hasher:        hasher,
	}
}

// Login authenticates a user and returns access and refresh tokens upon successful login.
func (s *authService) Login(username, password string) (string, string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// User not found we use dummy compare to mitigate timing attacks (always take same time)
			s.hasher.Matches(password, "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e")
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, err
	}

	if !s.hasher.Matches(password, user.Password) {
		return "", "", nil, ErrInvalidCredentials
	}

	// Generate access token (short-lived, 15 min)
	accessToken, err := s.signer.Sign(shared.AuthClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return "", "", nil, err
	}

	// Generate refresh token (long-lived, 7 days)
	refreshToken, err := s.refreshTokens.Issue(user)
	if err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, user, nil
}

// ValidateToken verifies the signature and rejects blacklisted tokens.
// A blacklist storage fault propagates rather than defaulting to valid.
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.signer.Verify(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	blacklisted, err := s.blacklist.IsBlacklisted(tokenString)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
