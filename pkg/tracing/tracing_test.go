package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_DisabledInstallsPropagatorOnly(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "reviews"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_EnabledReturnsProviderShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName:  "reviews",
		OTLPEndpoint: "localhost:4318",
		Insecure:     true,
		SampleRate:   0,
		Enabled:      true,
	})
	require.NoError(t, err)
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}
