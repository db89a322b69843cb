package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricExporter owns the process meter provider and its OTLP exporter.
type MetricExporter struct {
	meterProvider    *sdkmetric.MeterProvider
	meter            metric.Meter
	resource         *resource.Resource
	serviceName      string
	serviceNamespace string
	serviceVersion   string
	otlpEndpoint     string
	otlpGRPCEndpoint string
	environment      string
	interval         time.Duration
}

// Option is a function that configures a MetricExporter
type Option func(*MetricExporter)

func WithServiceName(name string) Option {
	return func(mc *MetricExporter) {
		mc.serviceName = name
	}
}

func WithServiceNamespace(namespace string) Option {
	return func(mc *MetricExporter) {
		mc.serviceNamespace = namespace
	}
}

func WithServiceVersion(version string) Option {
	return func(mc *MetricExporter) {
		mc.serviceVersion = version
	}
}

// WithOTLPEndpoint sets the OTLP HTTP endpoint
func WithOTLPEndpoint(endpoint string) Option {
	return func(mc *MetricExporter) {
		mc.otlpEndpoint = endpoint
	}
}

// WithOTLPGRPCEndpoint sets the OTLP gRPC endpoint, which takes precedence over HTTP
func WithOTLPGRPCEndpoint(endpoint string) Option {
	return func(mc *MetricExporter) {
		mc.otlpGRPCEndpoint = endpoint
	}
}

func WithEnvironment(env string) Option {
	return func(mc *MetricExporter) {
		mc.environment = env
	}
}

// WithExportInterval sets how often the periodic reader pushes metrics.
func WithExportInterval(d time.Duration) Option {
	return func(mc *MetricExporter) {
		if d > 0 {
			mc.interval = d
		}
	}
}

func defaultConfig() *MetricExporter {
	return &MetricExporter{
		serviceName:      "dolar-feed",
		serviceNamespace: "default",
		serviceVersion:   "1.0.0",
		otlpEndpoint:     "localhost:4318",
		environment:      "development",
		interval:         10 * time.Second,
	}
}

// NewMetricExporter creates the meter provider and installs it globally. The
// returned func flushes and shuts it down; short-lived binaries must call it
// before exiting or the last interval is lost.
func NewMetricExporter(opts ...Option) (*MetricExporter, func(), error) {
	mc := defaultConfig()
	for _, opt := range opts {
		opt(mc)
	}

	if mc.otlpGRPCEndpoint == "" && mc.otlpEndpoint == "" {
		return nil, nil, fmt.Errorf("OTLP HTTP endpoint is required when gRPC endpoint is not configured")
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(mc.serviceName),
			semconv.ServiceNamespace(mc.serviceNamespace),
			semconv.ServiceVersion(mc.serviceVersion),
			semconv.DeploymentEnvironment(mc.environment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	if mc.otlpGRPCEndpoint != "" {
		exporter, err = otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(mc.otlpGRPCEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
	} else {
		exporter, err = otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(mc.otlpEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(mc.interval),
		)),
	)

	otel.SetMeterProvider(meterProvider)

	mc.meterProvider = meterProvider
	mc.meter = meterProvider.Meter(mc.serviceName)
	mc.resource = res

	return mc, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mc.meterProvider.Shutdown(ctx)
	}, nil
}

func (mc *MetricExporter) Meter() metric.Meter {
	return mc.meter
}

// Close gracefully shuts down the metric exporter
func (mc *MetricExporter) Close(ctx context.Context) error {
	return mc.meterProvider.Shutdown(ctx)
}
