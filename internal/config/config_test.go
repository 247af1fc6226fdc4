package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const productionSecret = "0123456789abcdef0123456789abcdef"

func setProduction(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DEV_BYPASS", "")
	t.Setenv("SESSION_SECRET", productionSecret)
	t.Setenv("EDGE_FUNCTIONS_URL", "https://project.example.com/functions/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://console.example.com")
	t.Setenv("FRONTEND_URL", "https://console.example.com")
}

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATA_STORE", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DEV_BYPASS", "true")
	t.Setenv("EDGE_FUNCTIONS_URL", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if !cfg.IsDevelopment() || !cfg.DevBypassActive() {
		t.Fatalf("expected development with bypass, got %+v", cfg)
	}
	if cfg.HTTPAddress() != ":8080" || !cfg.UseInMemoryStore() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionSecret == "" {
		t.Fatal("expected development session secret")
	}
	if cfg.SessionTTL != 12*time.Hour || cfg.SimulatedLatency != 500*time.Millisecond {
		t.Fatalf("unexpected durations: ttl=%s latency=%s", cfg.SessionTTL, cfg.SimulatedLatency)
	}
	if cfg.HostedBackendEnabled() || cfg.TikTokEnabled() {
		t.Fatal("hosted backend must be disabled without EDGE_FUNCTIONS_URL")
	}
}

func TestLoadAcceptsProduction(t *testing.T) {
	setProduction(t)
	t.Setenv("TIKTOK_CLIENT_KEY", "client-key")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DevBypassActive() || !cfg.SecureCookies() {
		t.Fatalf("unexpected production flags: %+v", cfg)
	}
	if !cfg.TikTokEnabled() {
		t.Fatal("expected TikTok login to be enabled")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h TTL, got %s", cfg.SessionTTL)
	}
}

func TestLoadRejectsProductionMisconfiguration(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "missing secret", key: "SESSION_SECRET", val: "", want: "SESSION_SECRET is required"},
		{name: "short secret", key: "SESSION_SECRET", val: "short", want: "SESSION_SECRET is required"},
		{name: "missing edge functions", key: "EDGE_FUNCTIONS_URL", val: "", want: "EDGE_FUNCTIONS_URL is required"},
		{name: "wildcard origin", key: "ALLOWED_ORIGINS", val: "https://example.com,*", want: "cannot contain wildcard"},
		{name: "empty origins", key: "ALLOWED_ORIGINS", val: "   ", want: "must define at least one origin"},
		{name: "bypass outside development", key: "DEV_BYPASS", val: "true", want: "DEV_BYPASS is only allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setProduction(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadValidatesFields(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "unknown store", key: "DATA_STORE", val: "redis", want: "DATA_STORE is invalid"},
		{name: "postgres without url", key: "DATA_STORE", val: "postgres", want: "DATABASE_URL is invalid"},
		{name: "bad log level", key: "LOG_LEVEL", val: "loud", want: "LOG_LEVEL is invalid"},
		{name: "bad ttl", key: "SESSION_TTL", val: "soon", want: "invalid SESSION_TTL"},
		{name: "zero ttl", key: "SESSION_TTL", val: "0s", want: "SESSION_TTL is invalid"},
		{name: "bad port", key: "PORT", val: "http", want: "invalid port"},
		{name: "bad bypass", key: "DEV_BYPASS", val: "maybe", want: "invalid DEV_BYPASS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv("DATABASE_URL", "")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadReadsSecretFromFile(t *testing.T) {
	setProduction(t)
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(productionSecret+"\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_SECRET_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SessionSecret != productionSecret {
		t.Fatalf("expected secret from file, got %q", cfg.SessionSecret)
	}
}
