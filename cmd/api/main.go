// Command api serves range queries over the dolar table.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infigaming-com/dolar-feed/api"
	"github.com/infigaming-com/dolar-feed/config"
	"github.com/infigaming-com/dolar-feed/migrate"
	"github.com/infigaming-com/dolar-feed/store"
	"github.com/infigaming-com/dolar-feed/util"
	"github.com/infigaming-com/dolar-feed/web"
	"github.com/infigaming-com/dolar-feed/web/middleware"
	"go.uber.org/zap"
)

func main() {
	lg, cleanup := util.NewLogger("dolar-api")
	defer cleanup()

	if err := run(lg); err != nil {
		lg.Error("api failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(lg *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDB(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrationsPath != "" {
		if err := migrate.Migrate(lg, cfg.StoreOptions().MigrateURL(), cfg.MigrationsPath); err != nil {
			return err
		}
	}

	db, err := store.Open(cfg.StoreOptions(), store.PoolOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	rangeCache, closeCache, err := cfg.NewRangeCache(ctx, lg)
	if err != nil {
		return err
	}
	defer closeCache()

	recorder, flush, err := cfg.NewRecorder("dolar-api")
	if err != nil {
		return err
	}
	defer flush()

	svc := api.NewRangeService(lg, store.NewRepository(db), api.WithCache(rangeCache, cfg.Query.CacheTTL))
	handler := api.NewHandler(lg, svc,
		api.WithStaticDir(cfg.HTTP.StaticDir),
		api.WithDefaultLimit(cfg.Query.DefaultLimit),
	)

	server := web.NewServer(
		web.WithMode(cfg.HTTP.Mode),
		web.WithPort(cfg.HTTP.Port),
		web.WithCustomHandler(middleware.CorrelationIdMiddleware()),
		web.WithCustomHandler(middleware.CORSMiddleware(cfg.AllowedOrigins())),
		web.WithCustomHandler(middleware.LoggingMiddleware(
			middleware.WithLogger(lg),
			middleware.WithDebugEnabled(cfg.HTTP.DebugLogging),
			middleware.WithExcludePaths([]string{"/health"}),
		)),
		web.WithCustomHandler(middleware.MetricsMiddleware(recorder)),
		web.WithRoutes(handler.Register),
	)
	return server.Run(ctx, lg)
}
