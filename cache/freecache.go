package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/coocood/freecache"
)

type freeCache struct {
	cache *freecache.Cache
}

// NewFreeCache wraps an in-process freecache. freecache raises sizes below
// 512KB to 512KB.
func NewFreeCache(cache *freecache.Cache) Cache {
	return &freeCache{cache: cache}
}

// ttlSeconds rounds expiry up to whole seconds; a non-positive expiry never
// expires.
func ttlSeconds(expiry time.Duration) int {
	if expiry <= 0 {
		return 0
	}
	return int(math.Ceil(expiry.Seconds()))
}

func (c *freeCache) Set(_ context.Context, key string, value string, expiry time.Duration) error {
	if err := c.cache.Set([]byte(key), []byte(value), ttlSeconds(expiry)); err != nil {
		return fmt.Errorf("freecache: set %s: %w", key, err)
	}
	return nil
}

func (c *freeCache) Get(_ context.Context, key string) (string, error) {
	data, err := c.cache.Get([]byte(key))
	switch {
	case errors.Is(err, freecache.ErrNotFound):
		return "", ErrKeyNotFound
	case err != nil:
		return "", fmt.Errorf("freecache: get %s: %w", key, err)
	}
	return string(data), nil
}

func (c *freeCache) Delete(_ context.Context, key string) error {
	c.cache.Del([]byte(key))
	return nil
}

func (c *freeCache) Clear(_ context.Context) error {
	c.cache.Clear()
	return nil
}
