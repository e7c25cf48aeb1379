package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores snapshot keys in Redis. Keys expire together after the
// TTL passed to Set, so a stale snapshot is dropped by Redis itself.
type RedisBackend struct {
	redis *redis.Client
}

// NewRedisBackend creates a Redis-backed snapshot backend.
func NewRedisBackend(redisClient *redis.Client) *RedisBackend {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{redis: redisClient}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	vals, err := b.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		// MGET reports missing keys as nil
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("redis mget: unexpected value type %T for %s", v, keys[i])
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (b *RedisBackend) Set(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	_, err := b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, k, v, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys []string) error {
	if err := b.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
