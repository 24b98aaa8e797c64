package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aurelhotels/credential-service/internal/usecase"
)

// AdminHandler exposes operational endpoints for token maintenance.
type AdminHandler struct {
	maintenance *usecase.MaintenanceService
}

// NewAdminHandler builds the handler.
func NewAdminHandler(maintenance *usecase.MaintenanceService) *AdminHandler {
	return &AdminHandler{maintenance: maintenance}
}

// CleanupTokens removes expired and consumed reset tokens on demand. The same
// work runs on a schedule; this endpoint exists for operators.
func (h *AdminHandler) CleanupTokens(c *gin.Context) {
	if h.maintenance == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "maintenance unavailable"))
		return
	}

	purged, err := h.maintenance.CleanupExpiredTokens(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "token cleanup failed"))
		return
	}

	c.JSON(http.StatusOK, CleanupResponse{Purged: purged})
}

// TokenStats reports issuance aggregates over the trailing window. The window
// defaults to 24 hours and can be widened with ?window=72h.
func (h *AdminHandler) TokenStats(c *gin.Context) {
	if h.maintenance == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "maintenance unavailable"))
		return
	}

	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid window duration"))
			return
		}
		window = parsed
	}

	stats, err := h.maintenance.ResetStatistics(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to aggregate token stats"))
		return
	}

	c.JSON(http.StatusOK, TokenStatsResponse{
		WindowStart: stats.WindowStart,
		WindowEnd:   stats.WindowEnd,
		Issued:      stats.Issued,
		Used:        stats.Used,
		Expired:     stats.Expired,
		Active:      stats.Active,
	})
}
