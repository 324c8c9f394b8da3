package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/dto"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/service"
)

// MaintenanceHandler exposes the periodic sweeps as admin-only endpoints so an
// operator can force a sweep between scheduler ticks.
type MaintenanceHandler struct {
	cleanup        *service.CleanupService
	accessTokenTTL time.Duration
}

func NewMaintenanceHandler(cleanup *service.CleanupService, accessTokenTTL time.Duration) *MaintenanceHandler {
	return &MaintenanceHandler{
		cleanup:        cleanup,
		accessTokenTTL: accessTokenTTL,
	}
}

// SweepRefreshTokens deletes expired refresh tokens on demand.
func (h *MaintenanceHandler) SweepRefreshTokens(c *gin.Context) {
	if err := h.cleanup.SweepExpiredRefreshTokens(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh token sweep failed"})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "expired refresh tokens swept"})
}

// SweepResetTokens deletes expired password reset tokens on demand.
func (h *MaintenanceHandler) SweepResetTokens(c *gin.Context) {
	if err := h.cleanup.SweepExpiredResetTokens(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset token sweep failed"})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "expired reset tokens swept"})
}

// SweepBlacklist purges blacklist entries whose blocked token is past its
// natural lifetime.
func (h *MaintenanceHandler) SweepBlacklist(c *gin.Context) {
	if err := h.cleanup.SweepOldBlacklistEntries(h.accessTokenTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist sweep failed"})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "stale blacklist entries swept"})
}
