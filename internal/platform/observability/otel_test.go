package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")

	s := SettingsFromEnv("shop-api")
	assert.Equal(t, "shop-api", s.ServiceName)
	assert.Equal(t, "staging", s.Environment)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, "collector:4318", s.OTLPEndpoint)
	assert.False(t, s.OTLPInsecure)
}

func TestSettingsFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")

	s := SettingsFromEnv("shop-worker")
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.Equal(t, "local", s.Environment)
	assert.True(t, s.OTLPInsecure)
}

func TestSettingsLoggerHonoursLevelAndService(t *testing.T) {
	var buf bytes.Buffer
	logger := Settings{ServiceName: "shop-api", LogLevel: slog.LevelWarn, LogOutput: &buf}.logger()

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"service":"shop-api"`)
}

func TestNilInstrumentsFallBack(t *testing.T) {
	var ins *Instruments
	assert.NotNil(t, ins.Tracer("x"))
	assert.NotNil(t, ins.Meter("x"))
}
