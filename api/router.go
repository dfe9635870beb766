package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/browserfetch/api/handler"
	"github.com/use-agent/browserfetch/api/middleware"
	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/fetcher"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics endpoints are intentionally outside auth so monitoring
// probes always work.
func NewRouter(f *fetcher.Fetcher, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	// Health and metrics — no auth required.
	r.GET("/health", handler.Health(f))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected group — auth + rate limit.
	v1 := r.Group("/api/v1")
	if cfg.Auth.Enabled {
		v1.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	v1.Use(middleware.RateLimit(cfg.RateLimit))

	// Fetch
	v1.POST("/fetch", handler.Fetch(f))

	// Screenshot
	v1.POST("/screenshot", handler.Screenshot(f))

	return r
}
