package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider
// and returns it with a cleanup that restores the original.
func setupTestTracer(t *testing.T) (*tracetest.SpanRecorder, func()) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	return sr, func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	}
}

func TestStartSpan(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartSpan(context.Background(), "job.alert-sweep",
		attribute.String("sku", "SKU-001"))
	require.NotNil(t, span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "job.alert-sweep", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Contains(t, spans[0].Attributes(), attribute.String("sku", "SKU-001"))
}

func TestRecordError(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartSpan(context.Background(), "job.reorder-evaluation")
	telemetry.RecordError(span, errors.New("supplier unreachable"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "supplier unreachable", spans[0].Status().Description)

	// nil error leaves the span untouched
	_, span = telemetry.StartSpan(context.Background(), "job.level-check")
	telemetry.RecordError(span, nil)
	span.End()
	spans = sr.Ended()
	require.Len(t, spans, 2)
	assert.NotEqual(t, codes.Error, spans[1].Status().Code)
}

func TestSetAttribute(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartSpan(context.Background(), "job.analytics-refresh")
	telemetry.SetAttribute(span, "processed", 42)
	telemetry.SetAttribute(span, "dry_run", false)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.Int("processed", 42))
	assert.Contains(t, attrs, attribute.Bool("dry_run", false))
}

func TestGetTraceID(t *testing.T) {
	t.Run("returns the id inside a span", func(t *testing.T) {
		_, cleanup := setupTestTracer(t)
		defer cleanup()

		ctx, span := telemetry.StartSpan(context.Background(), "job.dead-stock-scan")
		defer span.End()

		traceID := telemetry.GetTraceID(ctx)
		require.NotEmpty(t, traceID)
		assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
		assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	})

	t.Run("empty without a span", func(t *testing.T) {
		assert.Empty(t, telemetry.GetTraceID(context.Background()))
		assert.Empty(t, telemetry.GetSpanID(context.Background()))
	})
}

func TestTracerProviderDisabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	// lifecycle calls are no-ops on the disabled shell
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}
