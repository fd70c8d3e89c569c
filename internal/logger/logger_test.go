package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInit_JSON(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	require.NoError(t, initWriter(&buf, "WARN", "json"))
	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "shown", entry["message"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInit_Console(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	require.NoError(t, initWriter(&buf, "debug", "console"))
	log.Debug().Msg("details")
	assert.Contains(t, buf.String(), "details")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInit_EmptyLevelDefaultsToInfo(t *testing.T) {
	restoreGlobals(t)

	require.NoError(t, initWriter(&bytes.Buffer{}, "", "json"))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInit_InvalidLevel(t *testing.T) {
	restoreGlobals(t)

	assert.Error(t, Init("loud", "json"))
}
