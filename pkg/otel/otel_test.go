package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageHeadersCarryTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, parent := tp.Tracer("test").Start(context.Background(), "tick")
	defer parent.End()

	headers := map[string]any{"X-Trace-ID": "abc"}
	InjectMessage(ctx, headers)
	require.Contains(t, headers, "traceparent")
	assert.Equal(t, "abc", HeaderCarrier(headers).Get("X-Trace-ID"))

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), HeaderCarrier(headers))
	assert.Equal(t, parent.SpanContext().TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestHeaderCarrierIgnoresNonStrings(t *testing.T) {
	c := HeaderCarrier{"retries": int32(3)}
	assert.Equal(t, "", c.Get("retries"))
	assert.Equal(t, "", c.Get("missing"))
	c.Set("traceparent", "00-abc")
	assert.ElementsMatch(t, []string{"retries", "traceparent"}, c.Keys())
}

func TestConfigSampler(t *testing.T) {
	assert.Contains(t, Config{}.sampler().Description(), "AlwaysOnSampler")
	assert.Contains(t, Config{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
}
