package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://example/db", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_ProductionRequiresStrongJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_ProductionForbidsWildcardCORS(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "01234567890123456789012345678901")
	t.Setenv("CORS_ORIGINS", "*")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	_, err := os.Stat("/nonexistent/idleduelist-config.yaml")
	require.Error(t, err)

	cfg, err := Load("/nonexistent/idleduelist-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Matchmaking.KFactor)
}
