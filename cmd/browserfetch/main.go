package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/use-agent/browserfetch/api"
	"github.com/use-agent/browserfetch/cache"
	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/fetcher"
	"github.com/use-agent/browserfetch/metrics"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("browserfetch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Browser.MaxConcurrent,
	)

	// ── 3. Initialise browser session ───────────────────────────────
	// The browser itself launches lazily on the first fetch, so startup
	// stays fast and a crashed Chrome never blocks boot.
	session := fetcher.NewSession(cfg.Browser)
	defer session.Shutdown()

	// ── 4. Cache, metrics, fetcher ──────────────────────────────────
	pageCache := cache.NewWithLimits(cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.MaxBytes)
	m := metrics.New(prometheus.DefaultRegisterer)
	f := fetcher.New(session, pageCache, m, cfg.Fetch)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(f, cfg)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// os.Exit skips deferred calls, so the browser is closed
			// explicitly before bailing out.
			slog.Error("HTTP server error", "error", err)
			session.Shutdown()
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// session.Shutdown() runs via defer — closes Chrome if it started.
	slog.Info("browserfetch stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
