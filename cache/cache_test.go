package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rangeEntry struct {
	Count int       `json:"count"`
	Items []float64 `json:"items"`
}

func newMiniredisCache(t *testing.T, prefix string) (Cache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(zap.NewNop(), client, prefix), mr, client
}

func testCaches(t *testing.T) map[string]Cache {
	redisCache, _, _ := newMiniredisCache(t, "test:")
	return map[string]Cache{
		"freecache": NewFreeCache(freecache.NewCache(1024 * 1024)),
		"redis":     redisCache,
	}
}

func TestCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range testCaches(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", got)

			require.NoError(t, c.Set(ctx, "no-expiry", "v", 0))
			require.NoError(t, c.Set(ctx, "negative", "v", -time.Minute))
			_, err = c.Get(ctx, "negative")
			assert.NoError(t, err)

			require.NoError(t, c.Delete(ctx, "k"))
			_, err = c.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, c.Clear(ctx))
			_, err = c.Get(ctx, "no-expiry")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestTypedHelpers(t *testing.T) {
	ctx := context.Background()
	for name, c := range testCaches(t) {
		t.Run(name, func(t *testing.T) {
			want := rangeEntry{Count: 2, Items: []float64{4015.2, 4020.5}}
			require.NoError(t, SetTyped(ctx, c, "range", want, time.Minute))

			got, err := GetTyped[rangeEntry](ctx, c, "range")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, c.Set(ctx, "garbage", "{not json", time.Minute))
			_, err = GetTyped[rangeEntry](ctx, c, "garbage")
			assert.ErrorIs(t, err, ErrJsonUnmarshal)
		})
	}
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewFreeCache(freecache.NewCache(1024 * 1024))

	loads := 0
	load := func(ctx context.Context) (rangeEntry, error) {
		loads++
		return rangeEntry{Count: loads}, nil
	}

	first, hit, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, first.Count)

	second, hit, err := GetOrLoad(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, second.Count)
	assert.Equal(t, 1, loads)

	_, _, err = GetOrLoad(ctx, c, "failing", time.Minute, func(ctx context.Context) (rangeEntry, error) {
		return rangeEntry{}, errors.New("db down")
	})
	assert.Error(t, err)
	_, err = c.Get(ctx, "failing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisCacheExpiryAndPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr, client := newMiniredisCache(t, "dolar:range:")

	require.NoError(t, c.Set(ctx, "a", "1", time.Second))
	require.NoError(t, client.Set(ctx, "other:key", "keep", 0).Err())
	assert.True(t, mr.Exists("dolar:range:a"))

	mr.FastForward(2 * time.Second)
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("dolar:range:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestTTLSeconds(t *testing.T) {
	tcs := []struct {
		expiry time.Duration
		expect int
	}{
		{expiry: 0, expect: 0},
		{expiry: -time.Second, expect: 0},
		{expiry: 500 * time.Millisecond, expect: 1},
		{expiry: time.Minute, expect: 60},
		{expiry: 1500 * time.Millisecond, expect: 2},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.expect, ttlSeconds(tc.expiry), tc.expiry.String())
	}
}
