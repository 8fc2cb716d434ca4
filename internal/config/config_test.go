package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	envVars := []string{
		"PKGINDEXD_HOST",
		"PKGINDEXD_PORT",
		"PKGINDEXD_MAX_CONNS",
		"PKGINDEXD_GRACE_PERIOD",
		"PKGINDEXD_STATUS_PORT",
		"PKGINDEXD_LOGGING_LEVEL",
		"PKGINDEXD_LOG_FORMAT",
		"PKGINDEXD_LOG_COLOR",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Host != "0.0.0.0" {
			t.Errorf("Expected default Host to be 0.0.0.0, got %s", cfg.Host)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port to be 8080, got %s", cfg.Port)
		}
		if cfg.MaxConns != 0 {
			t.Errorf("Expected default MaxConns to be 0 (unlimited), got %d", cfg.MaxConns)
		}
		if cfg.GracePeriod != 5*time.Second {
			t.Errorf("Expected default GracePeriod to be 5s, got %v", cfg.GracePeriod)
		}
		if cfg.StatusPort != "" {
			t.Errorf("Expected status listener to be disabled by default, got %s", cfg.StatusPort)
		}
		if cfg.LogLevel != "INFO" {
			t.Errorf("Expected default LogLevel to be INFO, got %s", cfg.LogLevel)
		}
		if cfg.LogFormat != "console" {
			t.Errorf("Expected default LogFormat to be console, got %s", cfg.LogFormat)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PKGINDEXD_HOST", "127.0.0.1")
		t.Setenv("PKGINDEXD_PORT", "9090")
		t.Setenv("PKGINDEXD_MAX_CONNS", "500")
		t.Setenv("PKGINDEXD_GRACE_PERIOD", "10s")
		t.Setenv("PKGINDEXD_LOGGING_LEVEL", "DEBUG")
		t.Setenv("PKGINDEXD_LOG_FORMAT", "json")

		cfg := Load()

		if cfg.Host != "127.0.0.1" {
			t.Errorf("Expected Host 127.0.0.1, got %s", cfg.Host)
		}
		if cfg.Addr() != "127.0.0.1:9090" {
			t.Errorf("Expected Addr 127.0.0.1:9090, got %s", cfg.Addr())
		}
		if cfg.MaxConns != 500 {
			t.Errorf("Expected MaxConns 500, got %d", cfg.MaxConns)
		}
		if cfg.GracePeriod != 10*time.Second {
			t.Errorf("Expected GracePeriod 10s, got %v", cfg.GracePeriod)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("Expected LogLevel DEBUG, got %s", cfg.LogLevel)
		}
		if cfg.LogFormat != "json" {
			t.Errorf("Expected LogFormat json, got %s", cfg.LogFormat)
		}
	})

	t.Run("bare seconds accepted for durations", func(t *testing.T) {
		t.Setenv("PKGINDEXD_GRACE_PERIOD", "30")
		cfg := Load()
		if cfg.GracePeriod != 30*time.Second {
			t.Errorf("Expected GracePeriod 30s, got %v", cfg.GracePeriod)
		}
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("PKGINDEXD_MAX_CONNS", "not-a-number")
		t.Setenv("PKGINDEXD_LOG_COLOR", "maybe")
		cfg := Load()
		if cfg.MaxConns != 0 {
			t.Errorf("Expected MaxConns fallback 0, got %d", cfg.MaxConns)
		}
		if cfg.LogColor != true {
			t.Errorf("Expected LogColor fallback true, got %v", cfg.LogColor)
		}
	})
}
