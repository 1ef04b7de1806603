package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/db"
)

type HealthHandler struct {
	logger *zap.Logger
	db     db.Pinger
}

func NewHealthHandler(logger *zap.Logger, pinger db.Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, db: pinger}
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db != nil {
		if err := db.Ping(c.Request.Context(), h.db); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
