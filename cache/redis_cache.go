package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisCache struct {
	lg     *zap.Logger
	client *redis.Client
	prefix string
}

// NewRedisCache namespaces every key under prefix so Clear only removes this
// cache's entries from a shared database.
func NewRedisCache(lg *zap.Logger, client *redis.Client, prefix string) Cache {
	return &redisCache{
		lg:     lg,
		client: client,
		prefix: prefix,
	}
}

func (c *redisCache) key(k string) string {
	return c.prefix + k
}

func (c *redisCache) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	if expiry < 0 {
		expiry = 0
	}
	return c.client.Set(ctx, c.key(key), value, expiry).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", err
	}

	return data, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisCache) Clear(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.lg.Debug("cache cleared", zap.String("prefix", c.prefix), zap.Int("keys", removed))
	return nil
}
