package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.TokenLifetime)
	require.NotEmpty(t, cfg.JWTSecret) // dev fallback secret
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET_KEY", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "prod-secret", cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("JWT_EXPIRATION_HOURS", "1")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9001", cfg.Port)
	require.Equal(t, time.Hour, cfg.TokenLifetime)
	require.Equal(t, "client-id", cfg.GoogleClientID)
}
