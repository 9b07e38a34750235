package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "staging", LogLevel: "debug", LogFormat: "json"})

	log.Debug("pixel batch started")
	entry := decodeLine(t, &buf)

	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "pixel batch started", entry["message"])
	assert.Equal(t, "gem-composite", entry["service"])
	assert.Equal(t, "staging", entry["env"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "production", LogLevel: "warn", LogFormat: "json"})

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warnf("empty slots: %d", 3)
	assert.Equal(t, "empty slots: 3", decodeLine(t, &buf)["message"])

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"})

	log.Info("intervals ready")
	assert.True(t, strings.Contains(buf.String(), "intervals ready"))
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := &Logger{zlog: zerolog.New(&buf)}

	log.WithField("config_id", "s2_max_ndvi_2020").
		WithFields(map[string]interface{}{"pixels": 12, "workers": 4}).
		WithError(errors.New("scene date unparsable")).
		Error("batch failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "s2_max_ndvi_2020", entry["config_id"])
	assert.Equal(t, float64(12), entry["pixels"])
	assert.Equal(t, float64(4), entry["workers"])
	assert.Equal(t, "scene date unparsable", entry["error"])
	assert.Equal(t, "batch failed", entry["message"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("discarded")
	})
}
