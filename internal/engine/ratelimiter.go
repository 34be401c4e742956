package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter throttles deliveries per subscription with a sliding
// window over Redis, so the limit holds across multiple engine instances.
// A Lua script atomically evicts expired entries, checks the count, and
// records the new delivery.
type RedisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
	script *redis.Script
}

// 1. Drop entries older than the window
// 2. Count what remains
// 3. Under the limit: record this delivery and return 1 (allowed)
// 4. At the limit: return 0 (denied)
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('EXPIRE', key, window / 1000 + 1)
    return 1
else
    return 0
end
`)

func NewRedisRateLimiter(client *redis.Client, logger *slog.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		logger: logger,
		script: slidingWindowScript,
	}
}

func rateKey(subscriptionID uuid.UUID) string {
	return fmt.Sprintf("rl:%s", subscriptionID)
}

// Allow reports whether a delivery to this subscription fits inside its
// per-second limit. Fails open: a Redis error never blocks a delivery.
func (rl *RedisRateLimiter) Allow(ctx context.Context, subscriptionID uuid.UUID, limit int) bool {
	if limit <= 0 {
		return true
	}

	now := time.Now().UnixMilli()
	window := int64(1000)
	member := fmt.Sprintf("%d:%d", now, time.Now().UnixNano()%10000)

	result, err := rl.script.Run(ctx, rl.client, []string{rateKey(subscriptionID)},
		now, window, limit, member,
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "subscription_id", subscriptionID)
		return true
	}

	if result == 0 {
		rl.logger.Debug("delivery rate limited",
			"subscription_id", subscriptionID,
			"limit", limit,
		)
		return false
	}

	return true
}
