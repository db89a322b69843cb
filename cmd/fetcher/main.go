// Command fetcher downloads the exchange-rate feed and stores it raw in the
// object store. It runs once by default, or on a cron schedule with -schedule.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/infigaming-com/dolar-feed/config"
	"github.com/infigaming-com/dolar-feed/feed"
	"github.com/infigaming-com/dolar-feed/fetcher"
	"github.com/infigaming-com/dolar-feed/notify"
	"github.com/infigaming-com/dolar-feed/util"
	"go.uber.org/zap"
)

func main() {
	schedule := flag.String("schedule", "", "cron spec to run under, e.g. \"*/15 * * * *\" (overrides FEED_SCHEDULE)")
	flag.Parse()

	lg, cleanup := util.NewLogger("dolar-fetcher")
	defer cleanup()

	if err := run(lg, *schedule); err != nil {
		lg.Error("fetcher failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(lg *zap.Logger, schedule string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateFetcher(); err != nil {
		return err
	}
	if schedule == "" {
		schedule = cfg.Feed.Schedule
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cfg.NewFileStore(ctx)
	if err != nil {
		return err
	}

	recorder, flush, err := cfg.NewRecorder("dolar-fetcher")
	if err != nil {
		return err
	}
	defer flush()

	opts := []fetcher.Option{
		fetcher.WithKeyPrefix(cfg.Feed.KeyPrefix),
		fetcher.WithRecorder(recorder),
	}
	transport, err := cfg.NewTransport(ctx, lg)
	if err != nil {
		return err
	}
	if transport != nil {
		defer transport.Close(context.Background())
		if cfg.Notify.Topic != "" {
			opts = append(opts, fetcher.WithPublisher(notify.NewPublisher(transport, cfg.Notify.Topic)))
		}
	}

	f := fetcher.NewFetcher(lg, feed.NewHTTPSource(lg, cfg.Feed.URL, cfg.Feed.Timeout), store, opts...)

	if schedule != "" {
		return fetcher.Schedule(ctx, lg, schedule, f)
	}

	resp, err := f.Run(ctx)
	if err != nil {
		return err
	}
	lg.Info("fetch completed", zap.Int("status_code", resp.StatusCode), zap.String("body", resp.Body))
	return nil
}
