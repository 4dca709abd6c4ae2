package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Settings controls how a process reports logs, spans, and metrics.
type Settings struct {
	ServiceName  string
	Environment  string
	LogLevel     slog.Level
	LogFormat    string // "json" or "text"
	LogOutput    io.Writer
	OTLPEndpoint string
	OTLPInsecure bool
}

// SettingsFromEnv reads LOG_LEVEL, LOG_FORMAT, ENVIRONMENT and the standard
// OTEL_EXPORTER_OTLP_* variables.
func SettingsFromEnv(serviceName string) Settings {
	s := Settings{
		ServiceName:  serviceName,
		Environment:  lookupEnv("ENVIRONMENT", "local"),
		LogLevel:     slog.LevelInfo,
		LogFormat:    strings.ToLower(lookupEnv("LOG_FORMAT", "json")),
		LogOutput:    os.Stdout,
		OTLPEndpoint: lookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: lookupEnv("OTEL_EXPORTER_OTLP_INSECURE", "1") != "0",
	}
	if raw := lookupEnv("LOG_LEVEL", ""); raw != "" {
		if err := s.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			s.LogLevel = slog.LevelInfo
		}
	}
	return s
}

// Instruments is what request handlers, services, and workers pull their
// logger, tracers, and meters from.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// MetricReader holds the OTel counters recorded by the service decorators.
	MetricReader sdkmetric.Reader
	// Registry backs the Prometheus scrape endpoint.
	Registry *prometheus.Registry
}

// Init is Setup driven by the process environment.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	return Setup(ctx, SettingsFromEnv(serviceName))
}

// Setup installs the global tracer provider, meter provider, propagator and
// default slog logger. The returned func flushes spans and stops the readers.
func Setup(ctx context.Context, s Settings) (*Instruments, func(context.Context) error, error) {
	logger := s.logger()
	slog.SetDefault(logger)

	res, err := s.resource(ctx)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := s.spanExporter(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithBatcher(exporter))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ins := &Instruments{
		Logger:         logger,
		TracerProvider: tp,
		MeterProvider:  mp,
		MetricReader:   reader,
		Registry:       processRegistry(),
	}
	shutdown := func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}
	return ins, shutdown, nil
}

func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

func (s Settings) logger() *slog.Logger {
	out := s.LogOutput
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: s.LogLevel, AddSource: true}
	var handler slog.Handler
	if s.LogFormat == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	logger := slog.New(handler)
	if s.ServiceName != "" {
		logger = logger.With(slog.String("service", s.ServiceName))
	}
	return logger
}

func (s Settings) resource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", s.ServiceName),
			attribute.String("deployment.environment", s.Environment),
		),
	)
}

// spanExporter prefers OTLP over HTTP and degrades to stdout.
func (s Settings) spanExporter(ctx context.Context, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if s.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(s.OTLPEndpoint))
	}
	if s.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err == nil {
		return exp, nil
	}
	logger.Warn("otlp trace exporter unavailable, writing spans to stdout", slog.String("error", err.Error()))
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func processRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func lookupEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
