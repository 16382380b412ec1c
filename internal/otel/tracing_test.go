package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printdesk/internal/logging"
)

func TestInitDisabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), logging.New(&buf, "info", time.UTC))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tracing_configured", entry["event"])
	assert.Equal(t, false, entry["tracing_enabled"])
}

func TestInitUnsupportedProtocolDegrades(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), logging.New(&buf, "info", time.UTC))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "tracing_init_failed")
}

func TestSamplerFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		sampler   string
		arg       string
		wantName  string
		wantRatio float64
	}{
		{"default", "", "", "parentbased_traceidratio", 1.0},
		{"ratio", "traceidratio", "0.25", "traceidratio", 0.25},
		{"bad ratio", "traceidratio", "lots", "traceidratio", 1.0},
		{"out of range", "parentbased_traceidratio", "3", "parentbased_traceidratio", 1.0},
		{"always off", "always_off", "", "always_off", 1.0},
		{"unknown", "jaeger_remote", "", "parentbased_always_on", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			c := samplerFromEnv()
			assert.Equal(t, tt.wantName, c.name)
			assert.Equal(t, tt.wantRatio, c.ratio)
			assert.NotNil(t, c.sampler)
		})
	}
}
