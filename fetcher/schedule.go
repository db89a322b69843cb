package fetcher

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedule runs f on the cron spec until ctx is done. Each tick is an
// independent invocation; a failed tick is logged and the next one proceeds.
// Ticks never overlap.
func Schedule(ctx context.Context, lg *zap.Logger, spec string, f *Fetcher) error {
	cl := cronLogger{lg: lg}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))
	if _, err := c.AddFunc(spec, func() {
		resp, err := f.Run(ctx)
		if err != nil {
			lg.Error("scheduled fetch failed", zap.Error(err))
			return
		}
		lg.Info("scheduled fetch completed", zap.String("result", resp.Body))
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	lg.Info("fetch scheduler started", zap.String("schedule", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	lg.Info("fetch scheduler stopped")
	return nil
}

// cronLogger routes cron's own diagnostics (panics, skipped ticks) to zap.
type cronLogger struct {
	lg *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.lg.Debug("cron: "+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.lg.Error("cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
