package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/dto"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/middleware"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/service"
)

type AuthHandler struct {
	authService    service.AuthService
	refreshTokens  service.RefreshTokenService
	sessions       service.SessionService
	resets         service.PasswordResetService
	accessTokenTTL time.Duration
}

func NewAuthHandler(
	authService service.AuthService,
	refreshTokens service.RefreshTokenService,
	sessions service.SessionService,
	resets service.PasswordResetService,
	accessTokenTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		refreshTokens:  refreshTokens,
		sessions:       sessions,
		resets:         resets,
		accessTokenTTL: accessTokenTTL,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, refreshToken, user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Username:     user.Username,
		ExpiresIn:    int64(h.accessTokenTTL.Seconds()),
	})
}

// RefreshToken rotates the presented refresh token and mints a new access
// token. The old identifier is dead after a successful call.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newAccessToken, newRefreshToken, err := h.refreshTokens.Rotate(req.RefreshToken)
	if err != nil {
		// absent, expired and revoked all look the same to the caller
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrRevokedToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token refresh failed"})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.accessTokenTTL.Seconds()),
	})
}

// Logout tears the session down: refresh token revoked, access token
// blacklisted, request identity cleared. An already-dead refresh token still
// yields success to avoid token fishing.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	// body is optional: a logout with no refresh token still blacklists the access token
	_ = c.ShouldBindJSON(&req)

	accessToken := c.GetString("accessToken")

	if err := h.sessions.Logout(req.RefreshToken, accessToken, middleware.NewAuthContext(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// ForgotPassword starts a reset flow. Unknown emails get the same answer as
// known ones so the endpoint cannot enumerate accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.RequestReset(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyResetRequests):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many reset requests"})
		case errors.Is(err, service.ErrDeliveryFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not send reset email"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reset request failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "If the email exists, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.ResetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reset token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password updated"})
}
