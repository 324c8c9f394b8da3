package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suhashines/teamsync-backend/internal/config"
	"github.com/suhashines/teamsync-backend/internal/shared"
)

// Claims is the JWT payload of an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies stateless access tokens. The rest of the
// subsystem treats it as opaque: sign(claims) -> token, verify(token) -> claims.
type TokenSigner interface {
	Sign(identity shared.AuthClaims) (string, error)
	Verify(tokenString string) (*Claims, error)
}

type jwtSigner struct {
	secret         string
	accessTokenTTL time.Duration
}

// NewJWTSigner creates an HS256 TokenSigner from config.
func NewJWTSigner(cfg *config.Config) TokenSigner {
	return &jwtSigner{
		secret:         cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL, // 15 minutes
	}
}

func (s *jwtSigner) Sign(identity shared.AuthClaims) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *jwtSigner) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
