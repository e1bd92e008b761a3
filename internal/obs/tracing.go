package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TracingConfig describes where checkout spans are exported and how many are kept.
type TracingConfig struct {
	ServiceName string
	// Endpoint is the OTLP/HTTP collector URL. Empty falls back to the
	// OTEL_EXPORTER_OTLP_* environment.
	Endpoint string
	// SamplingRatio applies to root spans; child spans follow their parent.
	SamplingRatio float64
	Environment   string
}

// InitTracer installs a global OTLP tracer provider and the W3C propagators.
// The returned function flushes pending spans.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	exporter, err := newOTLPExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := tracingResource(ctx, cfg)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func newOTLPExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}
	return otlptracehttp.New(ctx, opts...)
}

func tracingResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "toko-checkout"
	}
	attrs := []resource.Option{
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceNameKey.String(name)),
	}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironmentKey.String(env)))
	}
	return resource.New(ctx, attrs...)
}

// samplerFor keeps every root span at ratio >= 1 and none at ratio <= 0.
func samplerFor(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
