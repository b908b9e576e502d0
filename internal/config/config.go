// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	Port        string

	JWTSecret     string
	TokenLifetime time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// RedisURL is optional; when empty the service runs on in-memory
	// stores and skips event publishing.
	RedisURL string
}

// Load reads configuration from environment variables with sane defaults.
// The JWT secret is required outside development.
func Load() (Config, error) {
	cfg := Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8000"),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		TokenLifetime:      time.Duration(getInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8000/auth/google/callback"),
		RedisURL:           os.Getenv("REDIS_URL"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return Config{}, fmt.Errorf("JWT_SECRET_KEY is required in %s", cfg.Environment)
		}
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = 24 * time.Hour
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
