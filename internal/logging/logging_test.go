package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "logs", "sprinkler.log")
	Init(zerolog.InfoLevel, path)

	log.Debug().Msg("hidden")
	log.Info().Str("station", "Front Lawn").Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"station":"Front Lawn"`)
	assert.Contains(t, string(data), "visible")
	assert.NotContains(t, string(data), "hidden")
}
