package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	returnID := uuid.New()

	_, span := StartServiceSpan(context.Background(), "refund", "process")
	SetAttributes(span,
		SpanAttrReturnID, returnID,
		SpanAttrAmount, "129.97",
		SpanAttrRMANumber, "RMA20261017ABCD",
		42, "skipped",
	)
	AddEvent(span, "gateway_called", SpanAttrGateway, "STRIPE")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "refund.process", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, returnID.String(), attrs[SpanAttrReturnID])
	assert.Equal(t, "129.97", attrs[SpanAttrAmount])
	assert.Len(t, attrs, 3)

	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "gateway_called", spans[0].Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := StartServiceSpan(context.Background(), "return", "complete")
	RecordError(span, errors.New("concurrent modification"))
	RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "concurrent modification", spans[0].Status().Description)
}

func TestToAttribute(t *testing.T) {
	assert.Equal(t, attribute.Int("n", 3), toAttribute("n", 3))
	assert.Equal(t, attribute.Bool("ok", true), toAttribute("ok", true))
	assert.Equal(t, attribute.Float64("f", 1.5), toAttribute("f", 1.5))
	assert.Equal(t, attribute.StringSlice("s", []string{"a"}), toAttribute("s", []string{"a"}))
	assert.Equal(t, attribute.String("x", "[1 2]"), toAttribute("x", []uint{1, 2}))
}

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, config.TelemetryConfig{ServiceName: "returns-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.NotNil(t, p.Tracer.Tracer("x"))
	assert.NotNil(t, p.Meter.Meter("x"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}

func TestLoggerProvider_ZapCore(t *testing.T) {
	t.Run("disabled gives a nop core", func(t *testing.T) {
		lp := &LoggerProvider{logger: zap.NewNop()}
		core := lp.ZapCore("returns", zapcore.InfoLevel)
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("level filter", func(t *testing.T) {
		provider := sdklog.NewLoggerProvider()
		t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
		lp := &LoggerProvider{provider: provider, logger: zap.NewNop()}

		core := lp.ZapCore("returns", zapcore.WarnLevel)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
		assert.False(t, core.With([]zapcore.Field{zap.String("k", "v")}).Enabled(zapcore.DebugLevel))
	})
}
