package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix = "analysis:result:"
	depKeyPrefix    = "analysis:dep:"
)

// RedisCache implements logic.CacheStore. Each memoized result is stored
// under its own key; a Redis set per dependency tag tracks which result
// keys must be purged when that entity changes.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, resultKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, deps []string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, resultKeyPrefix+key, value, ttl)
	for _, dep := range deps {
		pipe.SAdd(ctx, depKeyPrefix+dep, key)
		// Dependency sets outlive their members slightly so a purge
		// after expiry is a harmless no-op.
		if ttl > 0 {
			pipe.Expire(ctx, depKeyPrefix+dep, 2*ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate purges every cached result whose dependency list intersects
// deps, returning the number of distinct results removed.
func (c *RedisCache) Invalidate(ctx context.Context, deps []string) (int, error) {
	stale := make(map[string]struct{})
	for _, dep := range deps {
		members, err := c.client.SMembers(ctx, depKeyPrefix+dep).Result()
		if err != nil && err != redis.Nil {
			return 0, fmt.Errorf("cache invalidate members %s: %w", dep, err)
		}
		for _, key := range members {
			stale[key] = struct{}{}
		}
	}

	if len(stale) == 0 && len(deps) == 0 {
		return 0, nil
	}

	pipe := c.client.TxPipeline()
	for key := range stale {
		pipe.Del(ctx, resultKeyPrefix+key)
	}
	for _, dep := range deps {
		pipe.Del(ctx, depKeyPrefix+dep)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cache invalidate: %w", err)
	}
	return len(stale), nil
}
