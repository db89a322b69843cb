package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrJsonMarshal   = errors.New("failed to marshal value to json")
	ErrJsonUnmarshal = errors.New("failed to unmarshal value from json")
)

// Cache stores string values with a per-key expiry. Implementations return
// ErrKeyNotFound for missing or expired keys.
type Cache interface {
	Set(ctx context.Context, key string, value string, expiry time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

func SetTyped[T any](ctx context.Context, cache Cache, key string, value T, expiry time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJsonMarshal, err)
	}

	return cache.Set(ctx, key, string(data), expiry)
}

func GetTyped[T any](ctx context.Context, cache Cache, key string) (T, error) {
	var result T

	value, err := cache.Get(ctx, key)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return result, fmt.Errorf("%w: key %s: %v", ErrJsonUnmarshal, key, err)
	}

	return result, nil
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Cache failures fall through to load; load errors are not cached.
func GetOrLoad[T any](ctx context.Context, cache Cache, key string, expiry time.Duration, load func(ctx context.Context) (T, error)) (T, bool, error) {
	if cached, err := GetTyped[T](ctx, cache, key); err == nil {
		return cached, true, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, false, err
	}
	_ = SetTyped(ctx, cache, key, value, expiry)
	return value, false, nil
}
