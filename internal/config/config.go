// Package config handles loading application configuration from environment
// variables and an optional YAML file. All config is centralized here so no
// other package reads env vars directly. Sensible defaults are provided for
// development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// devSecretKey is only ever used outside production.
const devSecretKey = "dev-secret-key-do-not-use-in-production!!"

// Config holds all application configuration. Populated at startup and
// passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string `yaml:"env" env:"ENV" env-default:"development"`

	// Port is the HTTP listen port of the web frontend.
	Port int `yaml:"port" env:"PORT" env-default:"8080"`

	// BaseURL is the public-facing URL of the frontend.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"debug"`

	// API holds the upstream student API settings.
	API APIConfig `yaml:"api"`

	// Redis holds the visitor storage settings.
	Redis RedisConfig `yaml:"redis"`

	// Auth holds session settings.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit throttles log-in and sign-up submissions per client IP.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// CLI holds settings used only by studentctl.
	CLI CLIConfig `yaml:"cli"`
}

// APIConfig describes how the Request Gateway reaches the student API.
type APIConfig struct {
	// BaseURL is the root every request path is resolved against.
	BaseURL string `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000"`

	// Timeout bounds every upstream call.
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"20s"`
}

// RedisConfig holds Redis connection parameters. An empty URL selects the
// in-memory store, which is only allowed in development.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	// SecretKey seals stored session records. Must be 32+ characters in production.
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`

	// SessionTTL is how long a visitor's stored entries survive without writes.
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"720h"`
}

// RateLimitConfig is a token bucket: RPS refill rate and Burst capacity.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"0.2"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// CLIConfig holds studentctl settings.
type CLIConfig struct {
	// DBPath is the bbolt file holding the CLI's session.
	DBPath string `yaml:"db_path" env:"STUDENTCTL_DB" env-default:".studentctl.db"`
}

// Load reads configuration. When CONFIG_PATH points to a YAML file it is read
// first and environment variables override it; otherwise only the environment
// is used. Returns an error if required values are missing in production.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = devSecretKey
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}

	if !c.IsProduction() {
		return nil
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required in production")
	}
	if len(c.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction is case-insensitive to catch "Production", "prod", etc.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// Level parses LogLevel, falling back to info for unknown values.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
