package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "ALLOWED_ORIGINS", "TRUST_HANDSHAKE", "NATS_URL", "STORE_URL", "STORE_TIMEOUT"} {
		t.Setenv(key, "")
	}
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustHandshake)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
}

func TestLoad_SecretRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("TRUST_HANDSHAKE", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TrustModeSkipsSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("TRUST_HANDSHAKE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TrustHandshake)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("PORT", "9999")
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com , https://admin.example.com ")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("STORE_URL", "http://store:4000")
	t.Setenv("STORE_TIMEOUT", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "http://store:4000", cfg.StoreURL)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
}

func TestLoad_BadTimeoutFallsBack(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("STORE_TIMEOUT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
}
