package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
)

// IngestionStats reports consumer statistics of the interaction topic.
type IngestionStats interface {
	Stats() map[string]interface{}
}

// AdminHandler exposes read-only operational views for admins.
type AdminHandler struct {
	logger *logrus.Logger
	config *config.Config
	stats  IngestionStats
}

func NewAdminHandler(logger *logrus.Logger, cfg *config.Config, stats IngestionStats) *AdminHandler {
	return &AdminHandler{
		logger: logger,
		config: cfg,
		stats:  stats,
	}
}

// GetRecommendationConfig returns the scoring constants and defaults in effect.
func (h *AdminHandler) GetRecommendationConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.config.Recommendation})
}

func (h *AdminHandler) GetIngestionStats(c *gin.Context) {
	stats := h.stats.Stats()
	if stats == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("STATS_UNAVAILABLE", "Consumer statistics are not available"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
