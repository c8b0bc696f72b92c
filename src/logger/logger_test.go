package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"artisty_assistant/src/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	err := InitLogger(model.LogConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitLoggerWritesJSONToFile(t *testing.T) {
	t.Cleanup(func() {
		Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	})

	path := filepath.Join(t.TempDir(), "nested", "assistant.log")
	err := InitLogger(model.LogConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: path,
		Format:   "json",
	})
	require.NoError(t, err)

	log := Component("grounding")
	log.Debug().Str("candidate", "cheep").Msg("keyword rejected")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"component":"grounding"`)
	assert.Contains(t, lines[1], `"service":"artisty-assistant"`)
	assert.Contains(t, lines[1], `"candidate":"cheep"`)
}
