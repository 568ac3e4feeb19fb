package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-blog-admin/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel("info"))
	require.Equal(t, zerolog.ErrorLevel, logging.ParseLevel(" error "))
	require.Equal(t, zerolog.Disabled, logging.ParseLevel("off"))
	require.Equal(t, zerolog.WarnLevel, logging.ParseLevel(""))
	require.Equal(t, zerolog.WarnLevel, logging.ParseLevel("nonsense"))
}

func TestInitWriterJSON(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	logging.InitWriter(&buf, "info", "json")
	log.Debug().Msg("hidden")
	log.Info().Str("scope", "durable").Msg("token persisted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "token persisted", entry["message"])
	require.Equal(t, "durable", entry["scope"])
	require.NotContains(t, buf.String(), "hidden")
}
