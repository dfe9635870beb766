package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8181
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxConcurrent bounds the number of in-flight browsing contexts.
	MaxConcurrent int // default: 4
}

// FetchConfig controls navigation and preflight behavior.
type FetchConfig struct {
	// NavTimeout is the deadline for the first navigation attempt,
	// which waits for network idle.
	NavTimeout time.Duration // default: 15s

	// NavRetryTimeout is the deadline for the relaxed retry attempt,
	// which only waits for the DOM to load.
	NavRetryTimeout time.Duration // default: 30s

	// PrecheckTimeout is the total deadline for the HEAD probe.
	PrecheckTimeout time.Duration // default: 5s
}

// CacheConfig controls the page result cache.
type CacheConfig struct {
	// TTL is how long a cached page stays valid.
	TTL time.Duration // default: 5m

	// MaxEntries is the maximum number of cached pages.
	MaxEntries int // default: 20

	// MaxBytes is the cumulative HTML byte budget across all entries.
	MaxBytes int // default: 50 MiB
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client. Zero or
	// negative disables limiting.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("BROWSERFETCH_HOST", "0.0.0.0"),
			Port: envIntOr("BROWSERFETCH_PORT", 8181),
			Mode: envOr("BROWSERFETCH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:      envBoolOr("BROWSERFETCH_HEADLESS", true),
			NoSandbox:     envBoolOr("BROWSERFETCH_NO_SANDBOX", false),
			BrowserBin:    os.Getenv("BROWSERFETCH_BROWSER_BIN"),
			MaxConcurrent: envIntOr("BROWSERFETCH_MAX_CONCURRENT", 4),
		},
		Fetch: FetchConfig{
			NavTimeout:      envDurationOr("BROWSERFETCH_NAV_TIMEOUT", 15*time.Second),
			NavRetryTimeout: envDurationOr("BROWSERFETCH_NAV_RETRY_TIMEOUT", 30*time.Second),
			PrecheckTimeout: envDurationOr("BROWSERFETCH_PRECHECK_TIMEOUT", 5*time.Second),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("BROWSERFETCH_CACHE_TTL", 5*time.Minute),
			MaxEntries: envIntOr("BROWSERFETCH_CACHE_MAX_ENTRIES", 20),
			MaxBytes:   envIntOr("BROWSERFETCH_CACHE_MAX_BYTES", 50*1024*1024),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("BROWSERFETCH_AUTH_ENABLED", false),
			APIKeys: envSliceOr("BROWSERFETCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("BROWSERFETCH_RATE_RPS", 5.0),
			Burst:             envIntOr("BROWSERFETCH_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("BROWSERFETCH_LOG_LEVEL", "info"),
			Format: envOr("BROWSERFETCH_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
