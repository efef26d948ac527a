// Package instrument sets up the process-wide slog logger and, when enabled,
// OpenTelemetry traces, metrics and logs exported over OTLP/gRPC.
package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const defaultMetricsInterval = 15 * time.Second

// Instrumentation hands out tracers and meters to the modules.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	MetricsInterval  time.Duration
	// LogLevel is one of debug, info, warn or error. Empty means info.
	LogLevel   string
	MaskFields []string
}

// New installs the default logger and returns the OTLP-backed
// implementation, or the noop one when cfg.Enabled is false.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil {
		return NewNoop(), nil
	}
	if !cfg.Enabled {
		initLogging(cfg, nil)
		return NewNoop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx))
	}
	lp, err := newLoggerProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx), mp.Shutdown(ctx))
	}

	// trace context travels in message headers between producers and this consumer
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	initLogging(cfg, lp)

	return &otelInstrumentation{tp: tp, mp: mp, lp: lp}, nil
}

func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	ratio := min(max(cfg.TraceSampleRatio, 0), 1)
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exporter),
	), nil
}

func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

type otelInstrumentation struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
	lp *sdklog.LoggerProvider
}

func (o *otelInstrumentation) Tracer(name string) trace.Tracer { return o.tp.Tracer(name) }

func (o *otelInstrumentation) Meter(name string) metric.Meter { return o.mp.Meter(name) }

// Shutdown flushes pending spans, metrics and log records.
func (o *otelInstrumentation) Shutdown(ctx context.Context) error {
	return errors.Join(o.tp.Shutdown(ctx), o.mp.Shutdown(ctx), o.lp.Shutdown(ctx))
}

// NewNoop returns an implementation that records nothing. The default slog
// logger is left untouched.
func NewNoop() Instrumentation {
	return noopInstrumentation{}
}

type noopInstrumentation struct{}

func (noopInstrumentation) Tracer(name string) trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer(name)
}

func (noopInstrumentation) Meter(name string) metric.Meter {
	return metricnoop.NewMeterProvider().Meter(name)
}

func (noopInstrumentation) Shutdown(context.Context) error { return nil }
