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
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 8*time.Second, cfg.Upstream.PublicTimeout)
	assert.Empty(t, cfg.Upstream.BaseURL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 720*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "gw_sid", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EVERMEDIA_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
