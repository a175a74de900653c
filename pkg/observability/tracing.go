// Package observability sets up OpenTelemetry tracing for tabeval and
// provides span helpers used around batch evaluation.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer used by tabeval packages.
const InstrumentationName = "github.com/ajitpratap0/tabeval"

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	PrettyPrint    bool
	Writer         io.Writer // exporter output, stderr when nil
	BatchTimeout   time.Duration
}

// DefaultTracingConfig returns a stdout tracing configuration that samples
// every batch.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "tabeval",
		ServiceVersion: "dev",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// InitTracing installs a global tracer provider exporting spans through
// stdouttrace and returns the tracer evaluators should use.
func InitTracing(config TracingConfig) (trace.Tracer, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SamplingRate)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)

	providerMu.Lock()
	provider = tp
	providerMu.Unlock()

	otel.SetTracerProvider(tp)
	return tp.Tracer(InstrumentationName), nil
}

// Tracer returns the tabeval tracer of the global provider, or a no-op
// tracer when tracing was never initialized.
func Tracer() trace.Tracer {
	providerMu.Lock()
	defer providerMu.Unlock()
	if provider == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return provider.Tracer(InstrumentationName)
}

// Shutdown flushes and stops the provider installed by InitTracing.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

// Span wraps a trace.Span and collects attributes until End.
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// StartSpan starts a span named operation on tracer. A nil tracer yields a
// no-op span.
func StartSpan(ctx context.Context, tracer trace.Tracer, operation string) (context.Context, *Span) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	ctx, span := tracer.Start(ctx, operation)
	return ctx, &Span{span: span}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case []string:
		attr = attribute.StringSlice(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// End records err, if any, as the span status and ends the span.
func (s *Span) End(err error) {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// getEnv gets environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
