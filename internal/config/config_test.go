package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webhooks")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://localhost/webhooks", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 50, cfg.NumWorkers)
	assert.True(t, cfg.WebhooksEnabled)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
	assert.Equal(t, 10*time.Second, cfg.DeliveryTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webhooks")
	t.Setenv("PORT", "9000")
	t.Setenv("WEBHOOK_MAX_RETRIES", "5")
	t.Setenv("WEBHOOK_RETRY_DELAY_MS", "250")
	t.Setenv("WEBHOOKS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay())
	assert.False(t, cfg.WebhooksEnabled)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/webhooks")
	t.Setenv("WEBHOOK_MAX_RETRIES", "0")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("WEBHOOK_MAX_RETRIES", "3")
	t.Setenv("NUM_WORKERS", "-1")

	_, err = Load()
	assert.Error(t, err)
}
