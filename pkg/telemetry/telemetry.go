package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/pkg/config"
	"github.com/qzarchive/qzarchive/pkg/logging"
)

const instrumentationName = "github.com/qzarchive/qzarchive"

var (
	tracer trace.Tracer

	instrumentsOnce sync.Once
	upstreamCalls   metric.Int64Counter
	hydrateSeconds  metric.Float64Histogram
)

// Init initializes OpenTelemetry with Jaeger and Prometheus exporters
func Init(cfg *config.TelemetryConfig) (func(), error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Telemetry disabled")
		return func() {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("0.1.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var shutdownFuncs []func(context.Context) error

	if cfg.JaegerURL != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerURL)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(jaegerExporter),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)

		logging.GetLogger().Info("Jaeger exporter initialized", zap.String("url", cfg.JaegerURL))
	}

	// The exporter registers with the default Prometheus registry, which
	// the server exposes on /metrics.
	if cfg.PrometheusEnabled {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)

		logging.GetLogger().Info("Prometheus exporter initialized")
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer = otel.Tracer(cfg.ServiceName)

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, fn := range shutdownFuncs {
			if err := fn(shutdownCtx); err != nil {
				logging.GetLogger().Error("Error shutting down telemetry", zap.Error(err))
			}
		}
	}

	return shutdown, nil
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// instruments are created once from the global meter, which forwards to
// whatever provider Init installs.
func instruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		var err error
		upstreamCalls, err = meter.Int64Counter("qzone_upstream_requests_total",
			metric.WithDescription("Signed requests sent to the feed service"))
		if err != nil {
			logging.GetLogger().Warn("Failed to create upstream counter", zap.Error(err))
		}
		hydrateSeconds, err = meter.Float64Histogram("qzone_hydrate_duration_seconds",
			metric.WithDescription("Time spent hydrating one post"),
			metric.WithUnit("s"))
		if err != nil {
			logging.GetLogger().Warn("Failed to create hydration histogram", zap.Error(err))
		}
	})
}

// RecordUpstream counts one upstream call by endpoint and outcome
func RecordUpstream(ctx context.Context, endpoint string, err error) {
	instruments()
	if upstreamCalls == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	))
}

// RecordHydration observes the duration of one hydration
func RecordHydration(ctx context.Context, took time.Duration, err error) {
	instruments()
	if hydrateSeconds == nil {
		return
	}
	hydrateSeconds.Record(ctx, took.Seconds(), metric.WithAttributes(
		attribute.Bool("failed", err != nil),
	))
}
