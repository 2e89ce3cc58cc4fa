package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

const defaultLegTTL = 7 * 24 * time.Hour

// RedisLegCache caches per-leg driving costs keyed by the coordinate pair.
// Road costs drift slowly, so entries carry a generous TTL.
type RedisLegCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLegCache(rdb *redis.Client, ttl time.Duration) *RedisLegCache {
	if ttl <= 0 {
		ttl = defaultLegTTL
	}
	return &RedisLegCache{rdb: rdb, ttl: ttl}
}

func legCacheKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("leg:%.6f,%.6f|%.6f,%.6f", from.Lat, from.Lng, to.Lat, to.Lng)
}

// Fetch a cached leg cost for the coordinate pair.
func (c *RedisLegCache) Get(ctx context.Context, from, to domain.Coordinates) (ports.LegCost, bool, error) {
	if c.rdb == nil {
		return ports.LegCost{}, false, errors.New("leg cache: redis client is nil")
	}

	val, err := c.rdb.Get(ctx, legCacheKey(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return ports.LegCost{}, false, nil
	}
	if err != nil {
		return ports.LegCost{}, false, fmt.Errorf("get leg cache: %w", err)
	}

	var cost ports.LegCost
	if _, err := fmt.Sscanf(val, "%d|%d", &cost.DurationSeconds, &cost.DistanceMeters); err != nil {
		return ports.LegCost{}, false, fmt.Errorf("get leg cache: malformed value %q: %w", val, err)
	}

	return cost, true, nil
}

// Store a leg cost for the coordinate pair.
func (c *RedisLegCache) Put(ctx context.Context, from, to domain.Coordinates, cost ports.LegCost) error {
	if c.rdb == nil {
		return errors.New("leg cache: redis client is nil")
	}

	val := fmt.Sprintf("%d|%d", cost.DurationSeconds, cost.DistanceMeters)
	if err := c.rdb.Set(ctx, legCacheKey(from, to), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set leg cache: %w", err)
	}

	return nil
}
