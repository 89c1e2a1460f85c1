package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`
	StoreBackend  string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	JWTSecret     string `env:"JWT_SECRET"`
	AppURL        string `env:"APP_URL" envDefault:"http://localhost:3000"`
	PublicAPIURL  string `env:"PUBLIC_API_URL" envDefault:"http://localhost:8080"`

	GeminiAPIKey        string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL       string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	VeoModel            string        `env:"VEO_MODEL" envDefault:"veo-2.0-generate-001"`
	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
	SyntheticVideoDelay time.Duration `env:"SYNTHETIC_VIDEO_DELAY" envDefault:"20s"`
	StaleQueuedAfter    time.Duration `env:"STALE_QUEUED_AFTER" envDefault:"2m"`

	SnippeAPIKey        string `env:"SNIPPE_API_KEY"`
	SnippeBaseURL       string `env:"SNIPPE_BASE_URL" envDefault:"https://api.snippe.sh"`
	SnippeWebhookSecret string `env:"SNIPPE_WEBHOOK_SECRET"`

	RedisURL           string   `env:"REDIS_URL"`
	RateLimitPerMin    int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// LoadConfig loads .env files when present, parses the environment and
// validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env", ".env.local"); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) sanitize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.AppURL = strings.TrimRight(strings.TrimSpace(c.AppURL), "/")
	c.PublicAPIURL = strings.TrimRight(strings.TrimSpace(c.PublicAPIURL), "/")
	c.GeminiBaseURL = strings.TrimRight(c.GeminiBaseURL, "/")
	c.SnippeBaseURL = strings.TrimRight(c.SnippeBaseURL, "/")
	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
	if c.RateLimitPerMin < 0 {
		c.RateLimitPerMin = 0
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SnippeWebhookSecret == "" {
		return fmt.Errorf("SNIPPE_WEBHOOK_SECRET is required")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.StaleQueuedAfter <= 0 {
		return fmt.Errorf("STALE_QUEUED_AFTER must be positive")
	}
	if c.StaleQueuedAfter <= c.ProviderTimeout {
		return fmt.Errorf("STALE_QUEUED_AFTER (%s) must be longer than PROVIDER_TIMEOUT (%s)", c.StaleQueuedAfter, c.ProviderTimeout)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
