package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/observability"
)

// readCache is a JSON read-through cache on Redis. A nil client disables it.
type readCache struct {
	client *redis.Client
	name   string
	ttl    time.Duration
	logger zerolog.Logger
}

func newReadCache(client *redis.Client, name string, ttl time.Duration, logger zerolog.Logger) readCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return readCache{client: client, name: name, ttl: ttl, logger: logger}
}

func (c readCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("cache", c.name).Msg("failed to read cache")
		}
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.Warn().Err(err).Str("cache", c.name).Msg("discarding corrupt cache entry")
		observability.CacheLookups().WithLabelValues(c.name, "miss").Inc()
		return false
	}

	observability.CacheLookups().WithLabelValues(c.name, "hit").Inc()
	return true
}

func (c readCache) set(ctx context.Context, key string, value interface{}) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("cache", c.name).Msg("failed to store cache")
	}
}

func (c readCache) invalidate(ctx context.Context, keys ...string) {
	if c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("cache", c.name).Msg("failed to invalidate cache")
	}
}
