package config

import (
	"testing"
	"time"

	"uapush/service/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	for _, key := range []string{
		"UA_API_VERSION", "UA_MESSAGE_KIND", "UA_BASE_URL", "UA_BROADCAST_URL", "UA_UNICAST_URL",
		"UA_RETRY_ATTEMPTS", "UA_RETRY_DELAY_MS", "UA_HTTP_TIMEOUT_MS", "VERBOSE_LOGGING", "PORT", "RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("UA_APP_KEY", "key")
	t.Setenv("UA_MASTER_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, payload.Variant{Version: payload.V3, Kind: payload.Plain}, cfg.Variant)
	assert.Equal(t, "https://go.urbanairship.com", cfg.BaseURL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 3*time.Second, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 8080, cfg.Port)
	assert.Zero(t, cfg.RateLimit)
	assert.False(t, cfg.VerboseLogging)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("UA_API_VERSION", "legacy")
	t.Setenv("UA_MESSAGE_KIND", "rich")
	t.Setenv("UA_UNICAST_URL", "http://localhost:9000/send")
	t.Setenv("UA_RETRY_ATTEMPTS", "5")
	t.Setenv("UA_RETRY_DELAY_MS", "250")
	t.Setenv("VERBOSE_LOGGING", "1")
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, payload.Variant{Version: payload.Legacy, Kind: payload.Rich}, cfg.Variant)
	assert.Equal(t, "http://localhost:9000/send", cfg.UnicastURL)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing app key", map[string]string{"UA_MASTER_SECRET": "s"}},
		{"missing master secret", map[string]string{"UA_APP_KEY": "k"}},
		{"bad version", map[string]string{"UA_APP_KEY": "k", "UA_MASTER_SECRET": "s", "UA_API_VERSION": "v9"}},
		{"bad kind", map[string]string{"UA_APP_KEY": "k", "UA_MASTER_SECRET": "s", "UA_MESSAGE_KIND": "sms"}},
		{"zero attempts", map[string]string{"UA_APP_KEY": "k", "UA_MASTER_SECRET": "s", "UA_RETRY_ATTEMPTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("UA_APP_KEY", "")
			t.Setenv("UA_MASTER_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
