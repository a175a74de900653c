package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_ExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.ServiceName = "tabeval-test"
	cfg.Writer = &buf

	tracer, err := InitTracing(cfg)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), tracer, "test.operation")
	span.SetAttribute("rows", 3)
	span.End(nil)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "test.operation")
	assert.Contains(t, buf.String(), "tabeval-test")

	// A second shutdown has nothing to flush.
	assert.NoError(t, Shutdown(context.Background()))
}

func TestSpan_RecordsAttributesAndError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "batch")
	span.SetAttribute("rows", 10)
	span.SetAttribute("mode", "sequential")
	span.SetAttribute("dropped", []string{"a"})
	span.End(errors.New("schema mismatch"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "batch", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("rows", 10))
	assert.Contains(t, ended[0].Attributes(), attribute.String("mode", "sequential"))
}

func TestStartSpan_NilTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), nil, "noop")
	require.NotNil(t, ctx)
	span.SetAttribute("k", "v")
	span.End(nil)

	assert.NotNil(t, Tracer())
}
