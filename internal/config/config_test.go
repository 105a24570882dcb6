package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:3000/api/v1", cfg.SatoruAPIURL)
	assert.Equal(t, 15*time.Second, cfg.SatoruAPITimeout)
	assert.Equal(t, "satoru_admin_session", cfg.SessionCookieName)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SATORU_API_URL", "https://api.satoru.example.com/api/v1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.satoru.example.com,https://staging.satoru.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "https://api.satoru.example.com/api/v1", cfg.SatoruAPIURL)
	assert.Equal(t, []string{
		"https://admin.satoru.example.com",
		"https://staging.satoru.example.com",
	}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoadRejectsNonPositiveSessionTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}
