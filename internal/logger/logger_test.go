package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	assert.Error(t, InitLogger(Config{Level: "chatty"}))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "garden.log")
	require.NoError(t, InitLogger(Config{Level: "debug", Format: "json", Output: "file", FilePath: path}))

	Info().Str("plant", "tomato").Msg("planted")
	u := ForUser("u-1")
	u.Warn().Msg("watering overdue")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"plant":"tomato"`)
	assert.Contains(t, string(data), `"user_id":"u-1"`)
	assert.Contains(t, string(data), `"app":"garden_buddy"`)

	// closed loggers discard
	Info().Msg("after close")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after close")
}
