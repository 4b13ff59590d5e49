package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestTracingHandler_InjectsServiceAttributes(t *testing.T) {
	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, nil)
	handler := NewTracingHandler(inner, "gitmetrics", "test", ModeCLI)
	logger := slog.New(handler)

	logger.Info("hello")

	out := buf.String()
	assert.Contains(t, out, `"service":"gitmetrics"`)
	assert.Contains(t, out, `"mode":"cli"`)
	assert.Contains(t, out, `"env":"test"`)
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, nil)
	handler := NewTracingHandler(inner, "gitmetrics", "", ModeCLI)
	logger := slog.New(handler)

	tp := trace.NewTracerProvider(trace.WithSampler(trace.AlwaysSample()))
	tracer := tp.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "unit-test-span")
	defer span.End()

	logger.InfoContext(ctx, "traced")

	out := buf.String()
	require.Contains(t, out, `"trace_id"`)
	require.Contains(t, out, `"span_id"`)
}
