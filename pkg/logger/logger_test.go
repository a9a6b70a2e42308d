package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConComponenteYNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("no sale")
	log := l.Component("ledger")
	log.Warn().Str("product_id", "p1").Msg("movimiento rechazado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "p1", entry["product_id"])
	assert.Equal(t, "movimiento rechazado", entry["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("ruido"))
}

func TestNop_NoEscribe(t *testing.T) {
	l := Nop()
	assert.Equal(t, zerolog.Disabled, l.Zerolog().GetLevel())
	assert.NotPanics(t, func() {
		l.Error().Str("k", "v").Msg("descartado")
		sub := l.Component("x")
		sub.Info().Msg("descartado")
	})
}
