// Package ingest turns stored feed documents into rows of the dolar table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/infigaming-com/dolar-feed/filestore"
	"github.com/infigaming-com/dolar-feed/notify"
	"github.com/infigaming-com/dolar-feed/observability/metrics"
	"github.com/infigaming-com/dolar-feed/store"
	"github.com/infigaming-com/dolar-feed/util"
	"go.uber.org/zap"
)

const (
	MsgInvalidJSON = "Archivo no es JSON válido"
	MsgNoPairs     = "Sin pares (fecha, valor)"
	msgUpserted    = "Insertados/actualizados: %d"
)

const (
	OutcomeUpserted    = "upserted"
	OutcomeInvalidJSON = "invalid_json"
	OutcomeNoPairs     = "no_pairs"
	OutcomeError       = "error"
)

// Response is what an invocation reports back to its trigger. Only hard
// failures surface as errors; invalid input is a 200 with a message.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) (*filestore.Object, error)
}

// RateWriter is one invocation-scoped database connection.
type RateWriter interface {
	EnsureSchema(ctx context.Context) error
	UpsertRates(ctx context.Context, rows []store.RatePoint) (int, error)
	Close() error
}

type Connector func(ctx context.Context) (RateWriter, error)

// StoreConnector opens a fresh MySQL connection per call.
func StoreConnector(opts store.Options) Connector {
	return func(ctx context.Context) (RateWriter, error) {
		w, err := store.Connect(ctx, opts)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

type Option func(*Ingester)

func WithRecorder(r metrics.Recorder) Option {
	return func(i *Ingester) {
		if r != nil {
			i.recorder = r
		}
	}
}

type Ingester struct {
	lg       *zap.Logger
	objects  ObjectReader
	connect  Connector
	recorder metrics.Recorder
}

func NewIngester(lg *zap.Logger, objects ObjectReader, connect Connector, opts ...Option) *Ingester {
	i := &Ingester{
		lg:       lg,
		objects:  objects,
		connect:  connect,
		recorder: metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handle ingests the object named by ev. The database is only contacted when
// at least one pair converts.
func (i *Ingester) Handle(ctx context.Context, ev notify.ObjectCreatedEvent) (*Response, error) {
	lg := util.LoggerWithCorrelationId(ctx, i.lg).With(zap.String("bucket", ev.Bucket), zap.String("key", ev.Key))

	obj, err := i.objects.GetObject(ctx, ev.Bucket, ev.Key)
	if err != nil {
		i.recorder.IngestCompleted(ctx, OutcomeError, 0, 0)
		return nil, fmt.Errorf("failed to read object %s/%s: %w", ev.Bucket, ev.Key, err)
	}

	pairs, err := ParseDocument(obj.Data)
	if err != nil {
		lg.Warn(MsgInvalidJSON, zap.Int("size", len(obj.Data)), zap.Error(err))
		i.recorder.IngestCompleted(ctx, OutcomeInvalidJSON, 0, 0)
		return &Response{StatusCode: http.StatusOK, Body: MsgInvalidJSON}, nil
	}

	rows, skipped := ConvertPairs(lg, pairs)
	if len(rows) == 0 {
		lg.Info(MsgNoPairs, zap.Int("pairs", len(pairs)), zap.Int("skipped", skipped))
		i.recorder.IngestCompleted(ctx, OutcomeNoPairs, 0, skipped)
		return &Response{StatusCode: http.StatusOK, Body: MsgNoPairs}, nil
	}

	n, err := i.write(ctx, lg, rows)
	if err != nil {
		i.recorder.IngestCompleted(ctx, OutcomeError, 0, skipped)
		return nil, err
	}

	lg.Info("rates upserted", zap.Int("rows", n), zap.Int("skipped", skipped))
	i.recorder.IngestCompleted(ctx, OutcomeUpserted, n, skipped)
	return &Response{StatusCode: http.StatusOK, Body: fmt.Sprintf(msgUpserted, n)}, nil
}

func (i *Ingester) write(ctx context.Context, lg *zap.Logger, rows []store.RatePoint) (int, error) {
	w, err := i.connect(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			lg.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	if err := w.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return w.UpsertRates(ctx, rows)
}

// HandleMessage adapts Handle to a notification subscription. Returning an
// error nacks the message so the broker redelivers it; events that cannot be
// decoded are dropped since redelivery would not change them.
func (i *Ingester) HandleMessage(ctx context.Context, msg *notify.Message) error {
	ctx = util.CorrelationIdToCtx(ctx, msg.ID)
	ev, err := notify.ParseEvent(msg.Data)
	if err != nil {
		i.lg.Error("dropping undecodable event",
			zap.String("message_id", msg.ID),
			zap.ByteString("data", msg.Data),
			zap.Error(err))
		return nil
	}

	resp, err := i.Handle(ctx, ev)
	if err != nil {
		if errors.Is(err, filestore.ErrObjectNotFound) {
			i.lg.Error("dropping event for missing object",
				zap.String("message_id", msg.ID),
				zap.String("key", ev.Key),
				zap.Error(err))
			return nil
		}
		i.lg.Error("ingest failed",
			zap.String("message_id", msg.ID),
			zap.Int("attempt", msg.Attempt),
			zap.Error(err))
		return err
	}

	i.lg.Info("ingest completed",
		zap.String("message_id", msg.ID),
		zap.String("key", ev.Key),
		zap.String("result", resp.Body))
	return nil
}
