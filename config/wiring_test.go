package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/infigaming-com/dolar-feed/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreOptions(t *testing.T) {
	cfg := &Config{DB: DBConfig{Host: "h", Port: 3307, Name: "bancorep", User: "u", Password: "p", Timeout: time.Second, BatchSize: 50}}
	opts := cfg.StoreOptions()
	assert.Equal(t, "h", opts.Host)
	assert.Equal(t, 3307, opts.Port)
	assert.Equal(t, 50, opts.BatchSize)
	assert.Contains(t, opts.DatabaseDSN(), "u:p@tcp(h:3307)/bancorep")
}

func TestNewFileStore(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{S3: S3Config{Bucket: "raw", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", AccessKeyID: "k", SecretAccessKey: "s", UsePathStyle: true}}
	fs, err := cfg.NewFileStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "raw", fs.Bucket())

	cfg.S3.R2AccountID = "acct"
	fs, err = cfg.NewFileStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "raw", fs.Bucket())

	_, err = (&Config{}).NewFileStore(ctx)
	assert.Error(t, err)
}

func TestNewTransportDisabled(t *testing.T) {
	transport, err := (&Config{}).NewTransport(context.Background(), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, transport)
}

func TestNewRecorder(t *testing.T) {
	recorder, cleanup, err := (&Config{}).NewRecorder("dolar-api")
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, metrics.NopRecorder{}, recorder)
}

func TestNewRangeCache(t *testing.T) {
	ctx := context.Background()
	lg := zap.NewNop()

	c, cleanup, err := (&Config{}).NewRangeCache(ctx, lg)
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, c)

	cfg := &Config{Query: QueryConfig{CacheTTL: time.Minute, CacheDriver: "freecache", CacheSizeMB: 1}}
	c, cleanup, err = cfg.NewRangeCache(ctx, lg)
	require.NoError(t, err)
	cleanup()
	assert.NotNil(t, c)

	mr := miniredis.RunT(t)
	cfg.Query.CacheDriver = "redis"
	cfg.Query.RedisAddr = mr.Addr()
	c, cleanup, err = cfg.NewRangeCache(ctx, lg)
	require.NoError(t, err)
	defer cleanup()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("dolar:range:k"))

	cfg.Query.CacheDriver = "memcached"
	_, _, err = cfg.NewRangeCache(ctx, lg)
	assert.Error(t, err)
}
