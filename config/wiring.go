package config

import (
	"context"
	"fmt"

	"github.com/coocood/freecache"
	"github.com/infigaming-com/dolar-feed/cache"
	"github.com/infigaming-com/dolar-feed/filestore"
	"github.com/infigaming-com/dolar-feed/notify"
	"github.com/infigaming-com/dolar-feed/observability/metrics"
	"github.com/infigaming-com/dolar-feed/store"
	"github.com/infigaming-com/dolar-feed/util"
	"go.uber.org/zap"
)

func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Host:      c.DB.Host,
		Port:      c.DB.Port,
		Name:      c.DB.Name,
		User:      c.DB.User,
		Password:  c.DB.Password,
		Timeout:   c.DB.Timeout,
		BatchSize: c.DB.BatchSize,
	}
}

func (c *Config) NewFileStore(ctx context.Context) (filestore.FileStore, error) {
	if c.S3.R2AccountID != "" {
		return filestore.NewR2FileStore(ctx, c.S3.R2AccountID, c.S3.AccessKeyID, c.S3.SecretAccessKey, c.S3.Bucket)
	}
	return filestore.NewS3FileStore(ctx, filestore.S3Options{
		Bucket:          c.S3.Bucket,
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		UsePathStyle:    c.S3.UsePathStyle,
	})
}

// NewTransport returns nil when no Pub/Sub project is configured.
func (c *Config) NewTransport(ctx context.Context, lg *zap.Logger) (notify.Transport, error) {
	if c.Notify.ProjectID == "" {
		return nil, nil
	}
	return notify.NewGoogleTransport(ctx, notify.GoogleConfig{
		ProjectID: c.Notify.ProjectID,
		Endpoint:  c.Notify.Endpoint,
		Logger:    lg,
	})
}

// NewRecorder exports pipeline metrics over OTLP when an endpoint is set and
// records nothing otherwise.
func (c *Config) NewRecorder(service string) (metrics.Recorder, func(), error) {
	if !c.MetricsEnabled() {
		return metrics.NopRecorder{}, func() {}, nil
	}
	exporter, cleanup, err := metrics.NewMetricExporter(
		metrics.WithServiceName(service),
		metrics.WithServiceNamespace("dolar-feed"),
		metrics.WithServiceVersion(c.Metrics.Version),
		metrics.WithEnvironment(c.Metrics.Environment),
		metrics.WithOTLPEndpoint(c.Metrics.OTLPEndpoint),
		metrics.WithOTLPGRPCEndpoint(c.Metrics.OTLPGRPCEndpoint),
	)
	if err != nil {
		return nil, nil, err
	}
	recorder, err := metrics.NewPipelineMetrics(exporter.Meter())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return recorder, cleanup, nil
}

// NewRangeCache returns a nil cache when QUERY_CACHE_TTL is zero.
func (c *Config) NewRangeCache(ctx context.Context, lg *zap.Logger) (cache.Cache, func(), error) {
	if c.Query.CacheTTL <= 0 {
		return nil, func() {}, nil
	}
	switch c.Query.CacheDriver {
	case "freecache", "":
		return cache.NewFreeCache(freecache.NewCache(c.Query.CacheSizeMB * 1024 * 1024)), func() {}, nil
	case "redis":
		client, err := util.NewRedisClient(ctx, util.RedisOptions{
			Addr:     c.Query.RedisAddr,
			Password: c.Query.RedisPassword,
			DB:       c.Query.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		lg.Info("connected to redis for cache", zap.String("addr", c.Query.RedisAddr), zap.Int("db", c.Query.RedisDB))
		return cache.NewRedisCache(lg, client, "dolar:range:"), func() {
			_ = client.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown QUERY_CACHE_DRIVER %q", c.Query.CacheDriver)
	}
}
