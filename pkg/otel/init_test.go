package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, collector{endpoint: "collector:4317", insecure: true}, parseEndpoint("collector:4317"))
	assert.Equal(t, collector{endpoint: "collector:4317", insecure: true}, parseEndpoint("http://collector:4317"))
	assert.Equal(t, collector{endpoint: "otel.example.com:443"}, parseEndpoint("https://otel.example.com:443"))
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 1.0, Config{SampleRatio: 0.2}.sampleRatio())
	assert.Equal(t, 1.0, Config{Environment: "development", SampleRatio: 0.2}.sampleRatio())
	assert.Equal(t, 0.2, Config{Environment: "production", SampleRatio: 0.2}.sampleRatio())
	assert.Equal(t, defaultSampleRatio, Config{Environment: "production"}.sampleRatio())
	assert.Equal(t, defaultSampleRatio, Config{Environment: "staging", SampleRatio: 3}.sampleRatio())
}

func TestDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitOpenTelemetry(context.Background(), Config{ServiceName: "incubation-portal"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
