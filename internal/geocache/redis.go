package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pinboard:geocode:"

// Redis keeps results in Redis with a native key expiry, so several
// processes can share one cache. Redis failures degrade to misses.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedis creates a Redis-backed cache. Non-positive ttl falls back to DefaultTTL.
func NewRedis(client redis.UniversalClient, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{client: client, ttl: ttl, log: log}
}

func (c *Redis) Get(ctx context.Context, query string) (*models.Place, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+query).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "Geocode cache read failed", "query", query, "error", err)
		return nil, false
	}

	var place models.Place
	if err = json.Unmarshal(raw, &place); err != nil {
		c.log.WarnContext(ctx, "Geocode cache entry is corrupted", "query", query, "error", err)
		return nil, false
	}

	return &place, true
}

func (c *Redis) Put(ctx context.Context, query string, place models.Place) {
	raw, err := json.Marshal(place)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to encode geocode result", "query", query, "error", err)
		return
	}

	if err = c.client.Set(ctx, redisKeyPrefix+query, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "Geocode cache write failed", "query", query, "error", err)
	}
}
