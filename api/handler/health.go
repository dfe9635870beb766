package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/browserfetch/fetcher"
	"github.com/use-agent/browserfetch/models"
)

// Health returns a handler for GET /health.
//
// Reports browser liveness and cache occupancy. The browser launches
// lazily, so "idle" before the first fetch is the healthy baseline.
func Health(f *fetcher.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		browser := "idle"
		if f.BrowserStarted() {
			browser = "running"
		}

		entries, bytes := f.CacheStats()

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Uptime:       f.Uptime().Round(time.Second).String(),
			Browser:      browser,
			CacheEntries: entries,
			CacheBytes:   bytes,
			Version:      "0.1.0",
		})
	}
}
