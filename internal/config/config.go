package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	minSessionSecretLength = 32
	devSessionSecret       = "liveintent-development-session-secret"
)

// Config aggregates runtime configuration for the creator console API.
type Config struct {
	Environment          string        `env:"APP_ENV" validate:"required"`
	DevBypass            bool          `env:"DEV_BYPASS"`
	HTTPPort             int           `env:"PORT" validate:"min=1,max=65535"`
	LogLevel             string        `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	DataStore            string        `env:"DATA_STORE" validate:"oneof=memory postgres sqlite"`
	DatabaseURL          string        `env:"DATABASE_URL" validate:"required_if=DataStore postgres"`
	SQLitePath           string        `env:"SQLITE_PATH" validate:"required_if=DataStore sqlite"`
	AllowedOrigins       []string      `env:"ALLOWED_ORIGINS" validate:"dive,required"`
	FrontendURL          string        `env:"FRONTEND_URL" validate:"required,url"`
	SessionSecret        string        `env:"SESSION_SECRET"`
	SessionTTL           time.Duration `env:"SESSION_TTL" validate:"gt=0"`
	SimulatedLatency     time.Duration `env:"SIMULATED_LATENCY" validate:"gte=0"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL" validate:"gt=0"`
	EdgeFunctionsURL     string        `env:"EDGE_FUNCTIONS_URL" validate:"omitempty,url"`
	EdgeFunctionsAnonKey string        `env:"EDGE_FUNCTIONS_ANON_KEY"`
	AuthJWKSURL          string        `env:"AUTH_JWKS_URL" validate:"omitempty,url"`
	AuthIssuer           string        `env:"AUTH_ISSUER"`
	TikTokClientKey      string        `env:"TIKTOK_CLIENT_KEY"`
	TikTokRedirectURL    string        `env:"TIKTOK_REDIRECT_URL" validate:"omitempty,url"`
}

// Load reads configuration from environment variables with defaults for local
// development. A .env file in the working directory fills in variables that are
// not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}

	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/liveintent_database_url")
	if err != nil {
		return Config{}, err
	}

	sessionSecret, err := getEnvOrFile("SESSION_SECRET", "/run/secrets/liveintent_session_secret")
	if err != nil {
		return Config{}, err
	}

	anonKey, err := getEnvOrFile("EDGE_FUNCTIONS_ANON_KEY", "")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:          strings.ToLower(getEnv("APP_ENV", "development")),
		DatabaseURL:          databaseURL,
		DataStore:            strings.ToLower(getEnv("DATA_STORE", "memory")),
		SQLitePath:           getEnv("SQLITE_PATH", "liveintent.db"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:       parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		FrontendURL:          strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		SessionSecret:        strings.TrimSpace(sessionSecret),
		EdgeFunctionsURL:     strings.TrimRight(getEnv("EDGE_FUNCTIONS_URL", ""), "/"),
		EdgeFunctionsAnonKey: strings.TrimSpace(anonKey),
		AuthJWKSURL:          getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:           getEnv("AUTH_ISSUER", ""),
		TikTokClientKey:      strings.TrimSpace(getEnv("TIKTOK_CLIENT_KEY", "")),
		TikTokRedirectURL:    getEnv("TIKTOK_REDIRECT_URL", "http://localhost:8080/api/auth/tiktok/callback"),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	if cfg.DevBypass, err = parseBool("DEV_BYPASS", false); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SimulatedLatency, err = parseDuration("SIMULATED_LATENCY", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = parseDuration("SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.IsDevelopment() && cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})

	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config: %s is invalid (%s)", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	if c.IsDevelopment() {
		return nil
	}

	if c.DevBypass {
		return errors.New("config: DEV_BYPASS is only allowed when APP_ENV is development")
	}
	if len(c.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("config: SESSION_SECRET is required and must be at least %d characters outside development", minSessionSecretLength)
	}
	if c.EdgeFunctionsURL == "" {
		return errors.New("config: EDGE_FUNCTIONS_URL is required outside development")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("config: ALLOWED_ORIGINS must define at least one origin outside development")
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return errors.New("config: ALLOWED_ORIGINS cannot contain wildcard outside development")
		}
	}
	return nil
}

// IsDevelopment reports whether this is a development build.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DevBypassActive reports whether the synthetic development user should be signed in.
func (c Config) DevBypassActive() bool {
	return c.IsDevelopment() && c.DevBypass
}

// HostedBackendEnabled reports whether the edge functions are configured.
func (c Config) HostedBackendEnabled() bool {
	return c.EdgeFunctionsURL != ""
}

// TikTokEnabled reports whether the TikTok login flow can run.
func (c Config) TikTokEnabled() bool {
	return c.TikTokClientKey != "" && c.HostedBackendEnabled()
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c Config) SecureCookies() bool {
	return !c.IsDevelopment()
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory session store should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
