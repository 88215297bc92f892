package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/db"
)

const (
	statsCacheKey = "stats"
	statsCacheTTL = time.Minute
)

// health handles GET /health
func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.db.Health(ctx); err != nil {
		r.logger.Warn("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"timestamp": now,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": now,
	})
}

// siteStats handles GET /stats
func (r *Router) siteStats(c *gin.Context) {
	var stats db.SiteStats
	if err := r.cache.GetJSON(statsCacheKey, &stats); err == nil {
		c.JSON(http.StatusOK, stats)
		return
	}

	totals, err := r.stats.Totals(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch stats")
		return
	}

	if err := r.cache.SetJSON(statsCacheKey, totals, statsCacheTTL); err != nil {
		r.logger.Debug("Failed to cache stats", zap.Error(err))
	}

	c.JSON(http.StatusOK, totals)
}
