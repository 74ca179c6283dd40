package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/webstack/starter/internal/config"
)

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	SampleRatio    float64
}

// TracingConfigFrom extracts the tracing settings from cfg.
func TracingConfigFrom(cfg *config.Config) TracingConfig {
	return TracingConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.ServiceVersion(),
		Environment:    string(cfg.Environment),
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		SampleRatio:    cfg.Observability.SampleRatio,
	}
}

// Tracing owns the SDK tracer provider. It is a lifecycle component: Start
// installs the provider and W3C propagators globally, Stop flushes pending spans.
type Tracing struct {
	provider   *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	name       string
}

// NewTracing builds a provider exporting over OTLP gRPC. The exporter dials
// lazily, so an unreachable collector does not fail startup.
func NewTracing(ctx context.Context, cfg TracingConfig) (*Tracing, error) {
	exporter, err := otlptracegrpc.New(ctx, exporterOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	return NewTracingWithProcessor(cfg, sdktrace.NewBatchSpanProcessor(exporter))
}

// NewTracingWithProcessor builds a provider around an arbitrary span processor.
func NewTracingWithProcessor(cfg TracingConfig, sp sdktrace.SpanProcessor) (*Tracing, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment.name", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	return &Tracing{
		provider:   tp,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		name:       cfg.ServiceName,
	}, nil
}

func exporterOptions(cfg TracingConfig) []otlptracegrpc.Option {
	var opts []otlptracegrpc.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func (t *Tracing) Name() string { return "tracing" }

func (t *Tracing) Start(context.Context) error {
	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(t.propagator)
	return nil
}

func (t *Tracing) Stop(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Tracer returns the tracer used for request spans.
func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(t.name)
}

// Propagator returns the propagator used on request and response headers.
func (t *Tracing) Propagator() propagation.TextMapPropagator {
	return t.propagator
}
