package infra

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// RedisCounter mantém o total de denúncias numa chave do Redis (INCR).
type RedisCounter struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisCounter(rdb redis.UniversalClient, key string) *RedisCounter {
	if key == "" {
		key = "reports:total"
	}
	return &RedisCounter{rdb: rdb, key: key}
}

func (c *RedisCounter) Increment(ctx context.Context) (int64, error) {
	n, err := c.rdb.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", c.key, err)
	}
	return n, nil
}

func (c *RedisCounter) Total(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, c.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c.key, err)
	}
	return n, nil
}

// MemoryCounter não sobrevive a restart.
type MemoryCounter struct {
	n atomic.Int64
}

func (c *MemoryCounter) Increment(context.Context) (int64, error) { return c.n.Add(1), nil }

func (c *MemoryCounter) Total(context.Context) (int64, error) { return c.n.Load(), nil }
