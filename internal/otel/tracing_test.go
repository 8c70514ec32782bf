package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sikap/internal/config"
)

func TestInit_Disabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	shutdown, err := Init(context.Background(), config.TracingConfig{Disabled: true}, zap.New(core))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	entries := logs.FilterMessage("tracing_configured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].ContextMap()["tracing_enabled"])
}

func TestInit_UnsupportedProtocolDegrades(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	shutdown, err := Init(context.Background(), config.TracingConfig{
		Protocol:    "carrier-pigeon",
		Environment: config.EnvDevelopment,
	}, zap.New(core))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	failed := logs.FilterMessage("tracing_init_failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "carrier-pigeon", failed[0].ContextMap()["otlp_protocol"])
	assert.Zero(t, logs.FilterMessage("tracing_configured").Len())
}

func TestInit_HTTPExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4318")
	core, logs := observer.New(zap.InfoLevel)

	shutdown, err := Init(context.Background(), config.TracingConfig{
		Protocol: "http/protobuf",
		Sampler:  "always_off",
	}, zap.New(core))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	entries := logs.FilterMessage("tracing_configured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["tracing_enabled"])
	assert.Equal(t, DefaultServiceName, entries[0].ContextMap()["service_name"])
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.25", "TraceIDRatioBased{0.25}"},
		{"traceidratio", "oops", "AlwaysOnSampler"},
		{"parentbased_always_on", "", "ParentBased{root:AlwaysOnSampler"},
		{"parentbased_traceidratio", "0.5", "ParentBased{root:TraceIDRatioBased{0.5}"},
		{"", "", "ParentBased{root:AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			assert.Contains(t, newSampler(tt.sampler, tt.arg).Description(), tt.want)
		})
	}
}

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 0.5, parseRatio("0.5"))
	assert.Equal(t, 1.0, parseRatio(""))
	assert.Equal(t, 1.0, parseRatio("2"))
	assert.Equal(t, 1.0, parseRatio("-0.1"))
}
