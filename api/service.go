package api

import (
	"context"
	"fmt"
	"time"

	"github.com/infigaming-com/dolar-feed/cache"
	"github.com/infigaming-com/dolar-feed/store"
	"go.uber.org/zap"
)

type RangeReader interface {
	FindRange(ctx context.Context, start, end time.Time, limit int) ([]store.RatePoint, error)
}

type Item struct {
	Fecha string  `json:"fecha"`
	Valor float64 `json:"valor"`
}

type RangeResponse struct {
	Count int    `json:"count"`
	Items []Item `json:"items"`
}

type ServiceOption func(*RangeService)

// WithCache enables read-through caching of range results for ttl. A ttl of
// zero or a nil cache leaves caching off.
func WithCache(c cache.Cache, ttl time.Duration) ServiceOption {
	return func(s *RangeService) {
		if c != nil && ttl > 0 {
			s.cache = c
			s.ttl = ttl
		}
	}
}

type RangeService struct {
	lg     *zap.Logger
	reader RangeReader
	cache  cache.Cache
	ttl    time.Duration
}

func NewRangeService(lg *zap.Logger, reader RangeReader, opts ...ServiceOption) *RangeService {
	s := &RangeService{lg: lg, reader: reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate rejects empty or inverted ranges and non-positive limits.
func Validate(start, end time.Time, limit int) error {
	if !end.After(start) {
		return ErrInvalidRange
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Range returns rows with start <= fecha <= end, ascending, at most limit.
func (s *RangeService) Range(ctx context.Context, start, end time.Time, limit int) (*RangeResponse, error) {
	if err := Validate(start, end, limit); err != nil {
		return nil, err
	}
	start, end = start.UTC(), end.UTC()

	if s.cache == nil {
		return s.load(ctx, start, end, limit)
	}

	key := fmt.Sprintf("range:%d:%d:%d", start.UnixNano(), end.UnixNano(), limit)
	resp, hit, err := cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*RangeResponse, error) {
		return s.load(ctx, start, end, limit)
	})
	if err != nil {
		return nil, err
	}
	s.lg.Debug("range served", zap.String("key", key), zap.Bool("cache_hit", hit), zap.Int("count", resp.Count))
	return resp, nil
}

func (s *RangeService) load(ctx context.Context, start, end time.Time, limit int) (*RangeResponse, error) {
	points, err := s.reader.FindRange(ctx, start, end, limit)
	if err != nil {
		return nil, ErrQueryFailed.WithCause(err)
	}
	items := make([]Item, 0, len(points))
	for _, p := range points {
		items = append(items, Item{
			Fecha: p.Fecha.UTC().Format(store.FechaLayout),
			Valor: p.Valor,
		})
	}
	return &RangeResponse{Count: len(items), Items: items}, nil
}
