// Package fetcher copies the upstream feed into the object store.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/infigaming-com/dolar-feed/feed"
	"github.com/infigaming-com/dolar-feed/filestore"
	"github.com/infigaming-com/dolar-feed/notify"
	"github.com/infigaming-com/dolar-feed/observability/metrics"
	"go.uber.org/zap"
)

const (
	DefaultKeyPrefix = "dolar"
	ContentType      = "application/json"
	keyTimeLayout    = "20060102T150405"
	savedBody        = `"Guardado Correcto"`
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// BuildKey names the raw object after the UTC fetch time, to the second.
func BuildKey(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s-%s.json", prefix, now.UTC().Format(keyTimeLayout))
}

type Option func(*Fetcher)

func WithKeyPrefix(prefix string) Option {
	return func(f *Fetcher) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// WithPublisher announces each stored object, for object stores that do not
// emit their own notifications.
func WithPublisher(p *notify.Publisher) Option {
	return func(f *Fetcher) {
		f.publisher = p
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

type Fetcher struct {
	lg        *zap.Logger
	source    feed.Source
	store     filestore.FileStore
	prefix    string
	now       func() time.Time
	publisher *notify.Publisher
	recorder  metrics.Recorder
}

func NewFetcher(lg *zap.Logger, source feed.Source, store filestore.FileStore, opts ...Option) *Fetcher {
	f := &Fetcher{
		lg:       lg,
		source:   source,
		store:    store,
		prefix:   DefaultKeyPrefix,
		now:      time.Now,
		recorder: metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run performs one fetch: download, store unmodified, optionally notify.
func (f *Fetcher) Run(ctx context.Context) (*Response, error) {
	key := BuildKey(f.prefix, f.now())
	lg := f.lg.With(zap.String("bucket", f.store.Bucket()), zap.String("key", key))

	body, err := f.source.Fetch(ctx)
	if err != nil {
		f.recorder.FetchCompleted(ctx, 0, err)
		return nil, err
	}

	if err := f.store.UploadFileData(ctx, body, ContentType, key); err != nil {
		err = fmt.Errorf("failed to store %s: %w", key, err)
		f.recorder.FetchCompleted(ctx, 0, err)
		return nil, err
	}
	lg.Info("feed stored", zap.Int("bytes", len(body)))

	if f.publisher != nil {
		ev := notify.ObjectCreatedEvent{Bucket: f.store.Bucket(), Key: key}
		id, err := f.publisher.PublishObjectCreated(ctx, ev, int64(len(body)))
		if err != nil {
			err = fmt.Errorf("failed to publish object-created event for %s: %w", key, err)
			f.recorder.FetchCompleted(ctx, len(body), err)
			return nil, err
		}
		lg.Debug("object-created event published", zap.String("message_id", id))
	}

	f.recorder.FetchCompleted(ctx, len(body), nil)
	return &Response{StatusCode: http.StatusOK, Body: savedBody}, nil
}
