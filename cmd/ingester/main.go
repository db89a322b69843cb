// Command ingester loads a stored feed document into the dolar table.
//
// One-shot modes take the object from -bucket/-key or from an S3 event
// notification (-event, "-" for stdin). With NOTIFY_SUBSCRIPTION set and no
// flags it consumes object-created events from Pub/Sub until stopped.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/infigaming-com/dolar-feed/config"
	"github.com/infigaming-com/dolar-feed/ingest"
	"github.com/infigaming-com/dolar-feed/notify"
	"github.com/infigaming-com/dolar-feed/util"
	"go.uber.org/zap"
)

func main() {
	bucket := flag.String("bucket", "", "bucket holding the object (defaults to S3_BUCKET)")
	key := flag.String("key", "", "object key to ingest")
	eventPath := flag.String("event", "", "path to an S3 event notification, or - for stdin")
	flag.Parse()

	lg, cleanup := util.NewLogger("dolar-ingester")
	defer cleanup()

	if err := run(lg, *bucket, *key, *eventPath); err != nil {
		lg.Error("ingester failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(lg *zap.Logger, bucket, key, eventPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDB(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects, err := cfg.NewFileStore(ctx)
	if err != nil {
		return err
	}
	recorder, flush, err := cfg.NewRecorder("dolar-ingester")
	if err != nil {
		return err
	}
	defer flush()

	ing := ingest.NewIngester(lg, objects, ingest.StoreConnector(cfg.StoreOptions()), ingest.WithRecorder(recorder))

	switch {
	case eventPath != "":
		ev, err := readEvent(eventPath)
		if err != nil {
			return err
		}
		return handleOnce(ctx, ing, ev)
	case key != "":
		if bucket == "" {
			bucket = cfg.S3.Bucket
		}
		return handleOnce(ctx, ing, notify.ObjectCreatedEvent{Bucket: bucket, Key: key})
	case cfg.Notify.Subscription != "":
		return subscribe(ctx, lg, cfg, ing)
	default:
		return errors.New("nothing to ingest: pass -key, -event or set NOTIFY_SUBSCRIPTION")
	}
}

func readEvent(path string) (notify.ObjectCreatedEvent, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return notify.ObjectCreatedEvent{}, fmt.Errorf("failed to read event: %w", err)
	}
	return notify.ParseEvent(data)
}

// handleOnce prints the invocation response as JSON on stdout.
func handleOnce(ctx context.Context, ing *ingest.Ingester, ev notify.ObjectCreatedEvent) error {
	resp, err := ing.Handle(ctx, ev)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(resp)
}

func subscribe(ctx context.Context, lg *zap.Logger, cfg *config.Config, ing *ingest.Ingester) error {
	transport, err := cfg.NewTransport(ctx, lg)
	if err != nil {
		return err
	}
	if transport == nil {
		return errors.New("NOTIFY_PROJECT_ID is required with NOTIFY_SUBSCRIPTION")
	}
	defer transport.Close(context.Background())

	lg.Info("consuming object-created events", zap.String("subscription", cfg.Notify.Subscription))
	err = transport.Subscribe(ctx, cfg.Notify.Subscription, ing.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
