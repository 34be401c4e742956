package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the service, bound from environment
// variables.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// RedisURL is optional; when empty the per-subscription rate limiter is
	// disabled and deliveries are never throttled.
	RedisURL string `envconfig:"REDIS_URL"`

	NumWorkers int `envconfig:"NUM_WORKERS" default:"50"`

	// WebhooksEnabled is the engine kill switch. When false the dispatcher is
	// replaced by a no-op and events are acknowledged without delivery.
	WebhooksEnabled bool `envconfig:"WEBHOOKS_ENABLED" default:"true"`

	// MaxRetries is the total number of delivery attempts per subscription,
	// including the first.
	MaxRetries int `envconfig:"WEBHOOK_MAX_RETRIES" default:"3"`

	// RetryDelayMs is the fixed delay between attempts. No backoff multiplier.
	RetryDelayMs int `envconfig:"WEBHOOK_RETRY_DELAY_MS" default:"5000"`

	// DeliveryTimeoutMs bounds a single HTTP POST to a subscriber endpoint.
	DeliveryTimeoutMs int `envconfig:"WEBHOOK_DELIVERY_TIMEOUT_MS" default:"10000"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("NUM_WORKERS must be positive, got %d", cfg.NumWorkers)
	}
	if cfg.MaxRetries <= 0 {
		return nil, fmt.Errorf("WEBHOOK_MAX_RETRIES must be positive, got %d", cfg.MaxRetries)
	}
	return &cfg, nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.DeliveryTimeoutMs) * time.Millisecond
}
