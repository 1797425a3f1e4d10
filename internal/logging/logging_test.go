package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "lingo.log")
	logger, closeLog, err := New(Options{Path: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("lesson loaded", zap.Int("lesson_id", 7))
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "lesson loaded", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 7, entry["lesson_id"])
}

func TestNew_Debug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lingo.log")
	logger, closeLog, err := New(Options{Path: path, Debug: true})
	require.NoError(t, err)
	logger.Debug("visible")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestNew_NoPath(t *testing.T) {
	logger, closeLog, err := New(Options{})
	require.NoError(t, err)
	logger.Info("dropped")
	closeLog()
}
