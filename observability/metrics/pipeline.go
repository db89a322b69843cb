package metrics

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder receives pipeline events from the fetcher, ingester and query API.
type Recorder interface {
	FetchCompleted(ctx context.Context, bytes int, err error)
	IngestCompleted(ctx context.Context, outcome string, upserted, skipped int)
	QueryServed(ctx context.Context, route string, status int)
}

type NopRecorder struct{}

func (NopRecorder) FetchCompleted(context.Context, int, error)        {}
func (NopRecorder) IngestCompleted(context.Context, string, int, int) {}
func (NopRecorder) QueryServed(context.Context, string, int)          {}

type PipelineMetrics struct {
	fetchTotal   metric.Int64Counter
	fetchBytes   metric.Int64Histogram
	ingestTotal  metric.Int64Counter
	rowsUpserted metric.Int64Counter
	rowsSkipped  metric.Int64Counter
	queryTotal   metric.Int64Counter
}

func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		pm  PipelineMetrics
		err error
	)
	if pm.fetchTotal, err = meter.Int64Counter("dolar_feed_fetch_total",
		metric.WithDescription("Feed fetch invocations"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if pm.fetchBytes, err = meter.Int64Histogram("dolar_feed_fetch_bytes",
		metric.WithDescription("Size of stored raw feed documents"), metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	if pm.ingestTotal, err = meter.Int64Counter("dolar_feed_ingest_total",
		metric.WithDescription("Ingest invocations by outcome"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if pm.rowsUpserted, err = meter.Int64Counter("dolar_feed_rows_upserted_total",
		metric.WithDescription("Rows written by the ingester"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if pm.rowsSkipped, err = meter.Int64Counter("dolar_feed_rows_skipped_total",
		metric.WithDescription("Pairs rejected during conversion"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if pm.queryTotal, err = meter.Int64Counter("dolar_feed_query_total",
		metric.WithDescription("Query API requests by route and status"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return &pm, nil
}

func (pm *PipelineMetrics) FetchCompleted(ctx context.Context, bytes int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pm.fetchTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if err == nil {
		pm.fetchBytes.Record(ctx, int64(bytes))
	}
}

func (pm *PipelineMetrics) IngestCompleted(ctx context.Context, outcome string, upserted, skipped int) {
	pm.ingestTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if upserted > 0 {
		pm.rowsUpserted.Add(ctx, int64(upserted))
	}
	if skipped > 0 {
		pm.rowsSkipped.Add(ctx, int64(skipped))
	}
}

func (pm *PipelineMetrics) QueryServed(ctx context.Context, route string, status int) {
	pm.queryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
}
