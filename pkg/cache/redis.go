package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an established Redis client. Connection lifecycle is
// owned by the caller (see pkg/redis.Connect).
func NewRedisCache(client *redis.Client) *RedisCache {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrOperationFail, err)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Join(ErrOperationFail, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.Join(ErrOperationFail, err)
	}
	return nil
}
