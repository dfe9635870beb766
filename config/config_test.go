package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.Browser.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.Browser.MaxConcurrent)
	}
	if cfg.Fetch.NavTimeout != 15*time.Second {
		t.Errorf("NavTimeout = %v, want 15s", cfg.Fetch.NavTimeout)
	}
	if cfg.Fetch.NavRetryTimeout != 30*time.Second {
		t.Errorf("NavRetryTimeout = %v, want 30s", cfg.Fetch.NavRetryTimeout)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 20 {
		t.Errorf("Cache.MaxEntries = %d, want 20", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.MaxBytes != 50*1024*1024 {
		t.Errorf("Cache.MaxBytes = %d, want 50MiB", cfg.Cache.MaxBytes)
	}
	if cfg.Auth.Enabled {
		t.Error("Auth should default to disabled")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BROWSERFETCH_HOST", "127.0.0.1")
	t.Setenv("BROWSERFETCH_PORT", "9090")
	t.Setenv("BROWSERFETCH_NO_SANDBOX", "true")
	t.Setenv("BROWSERFETCH_MAX_CONCURRENT", "8")
	t.Setenv("BROWSERFETCH_NAV_TIMEOUT", "20s")
	t.Setenv("BROWSERFETCH_CACHE_TTL", "1m")
	t.Setenv("BROWSERFETCH_AUTH_ENABLED", "true")
	t.Setenv("BROWSERFETCH_API_KEYS", "key-1, key-2,key-3")
	t.Setenv("BROWSERFETCH_RATE_RPS", "2.5")
	t.Setenv("BROWSERFETCH_LOG_FORMAT", "text")

	cfg := Load()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Browser.NoSandbox {
		t.Error("NoSandbox should be true")
	}
	if cfg.Browser.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", cfg.Browser.MaxConcurrent)
	}
	if cfg.Fetch.NavTimeout != 20*time.Second {
		t.Errorf("NavTimeout = %v, want 20s", cfg.Fetch.NavTimeout)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("Cache.TTL = %v, want 1m", cfg.Cache.TTL)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth should be enabled")
	}
	want := []string{"key-1", "key-2", "key-3"}
	if len(cfg.Auth.APIKeys) != len(want) {
		t.Fatalf("APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	for i, k := range want {
		if cfg.Auth.APIKeys[i] != k {
			t.Errorf("APIKeys[%d] = %q, want %q", i, cfg.Auth.APIKeys[i], k)
		}
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BROWSERFETCH_PORT", "not-a-number")
	t.Setenv("BROWSERFETCH_HEADLESS", "yep")
	t.Setenv("BROWSERFETCH_NAV_TIMEOUT", "soon")
	t.Setenv("BROWSERFETCH_RATE_RPS", "fast")

	cfg := Load()

	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want default 8181 on malformed value", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should keep its default on malformed value")
	}
	if cfg.Fetch.NavTimeout != 15*time.Second {
		t.Errorf("NavTimeout = %v, want default 15s on malformed value", cfg.Fetch.NavTimeout)
	}
	if cfg.RateLimit.RequestsPerSecond != 5.0 {
		t.Errorf("RequestsPerSecond = %v, want default 5.0 on malformed value", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestEnvSliceSkipsEmptyItems(t *testing.T) {
	t.Setenv("BROWSERFETCH_API_KEYS", " a ,, b ,")

	cfg := Load()

	want := []string{"a", "b"}
	if len(cfg.Auth.APIKeys) != len(want) {
		t.Fatalf("APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	for i, k := range want {
		if cfg.Auth.APIKeys[i] != k {
			t.Errorf("APIKeys[%d] = %q, want %q", i, cfg.Auth.APIKeys[i], k)
		}
	}
}
