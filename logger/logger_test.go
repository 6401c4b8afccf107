package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc.frontier/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{LogLevel: "warn", LogFormat: "json", Env: "test"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "returns").Msg("dropped ticker")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "returns", entry["component"])
	assert.Equal(t, "dropped ticker", entry["message"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{LogLevel: "debug", LogFormat: "console"}, &buf)

	log.Debug().Msg("computing returns")

	assert.Contains(t, buf.String(), "computing returns")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
