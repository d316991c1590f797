// Package tracing provides OpenTelemetry distributed tracing.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
)

// Config holds tracing settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP endpoint, empty for stdout
	SampleRate     float64
	Enabled        bool
}

// Tracer wraps the provider and tracer.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   *Config
}

var defaultTracer *Tracer

// Init configures the global tracer.
func Init(cfg *Config) (*Tracer, error) {
	if cfg == nil {
		cfg = &Config{
			ServiceName: "fideliza-backend",
			Environment: "development",
			SampleRate:  1.0,
			Enabled:     true,
		}
	}

	if !cfg.Enabled {
		defaultTracer = &Tracer{config: cfg}
		return defaultTracer, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	if cfg.Endpoint != "" {
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		exporter, err = otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
	} else {
		// stdout exporter for development
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer := &Tracer{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
		config:   cfg,
	}

	defaultTracer = tracer
	return tracer, nil
}

// GetTracer returns the default tracer.
func GetTracer() *Tracer {
	return defaultTracer
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start begins a new span.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t.tracer == nil {
		return ctx, noopSpan{}
	}
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartSpan begins a new span with attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t.tracer == nil {
		return ctx, noopSpan{}
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// SpanFromContext returns the current span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetError records an error on the current span.
func SetError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}

// noopSpan is used when tracing is disabled.
type noopSpan struct{ embedded.Span }

func (noopSpan) End(...trace.SpanEndOption)              {}
func (noopSpan) AddEvent(string, ...trace.EventOption)   {}
func (noopSpan) IsRecording() bool                       { return false }
func (noopSpan) RecordError(error, ...trace.EventOption) {}
func (noopSpan) SpanContext() trace.SpanContext          { return trace.SpanContext{} }
func (noopSpan) SetStatus(codes.Code, string)            {}
func (noopSpan) SetName(string)                          {}
func (noopSpan) SetAttributes(...attribute.KeyValue)     {}
func (noopSpan) TracerProvider() trace.TracerProvider    { return nil }
func (noopSpan) AddLink(trace.Link)                      {}

// Common attribute keys.
var (
	AttrUserID          = attribute.Key("user.id")
	AttrEstablishmentID = attribute.Key("establishment.id")
	AttrCustomerID      = attribute.Key("customer.id")
	AttrTransactionNo   = attribute.Key("transaction.no")
	AttrOperation       = attribute.Key("operation")
	AttrDBTable         = attribute.Key("db.table")
	AttrCacheKey        = attribute.Key("cache.key")
)

// WithUserID builds a user id attribute.
func WithUserID(id int64) attribute.KeyValue {
	return AttrUserID.Int64(id)
}

// WithEstablishmentID builds an establishment id attribute.
func WithEstablishmentID(id int64) attribute.KeyValue {
	return AttrEstablishmentID.Int64(id)
}

// WithCustomerID builds a customer id attribute.
func WithCustomerID(id int64) attribute.KeyValue {
	return AttrCustomerID.Int64(id)
}

// WithOperation builds an operation attribute.
func WithOperation(op string) attribute.KeyValue {
	return AttrOperation.String(op)
}
