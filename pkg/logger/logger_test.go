package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerWritesFieldsAndSource(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(WithWriter(&buf), WithLevel(zerolog.DebugLevel))
	require.NoError(t, err)

	log.Info("window mapped", "window", 42, "class", "xterm")
	log.Error("map failed", errors.New("bad window"), "window", 7)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "window mapped", lines[0]["message"])
	assert.Equal(t, float64(42), lines[0]["window"])
	assert.Equal(t, "xterm", lines[0]["class"])
	assert.Equal(t, "logger_test.go", lines[0]["file"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "bad window", lines[1]["error"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(WithWriter(&buf), WithLevel(zerolog.WarnLevel))
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestLoggerReportsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(WithWriter(&buf), WithLevel(zerolog.DebugLevel))
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.Level())

	rebuilt, err := NewLogger(WithWriter(&buf), WithLevel(log.Level()))
	require.NoError(t, err)
	rebuilt.Debug("kept")
	require.Len(t, decodeLines(t, &buf), 1)
}

func TestLoggerOddFieldsAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(WithWriter(&buf))
	require.NoError(t, err)

	log.Info("odd", "key", "value", "dangling", 3, "x")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "value", lines[0]["key"])
	_, ok := lines[0]["x"]
	assert.False(t, ok)
}

func TestLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wm.log")
	log, err := NewLogger(WithFile(path))
	require.NoError(t, err)

	log.Info("to file", "n", 1)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNopLogger(t *testing.T) {
	log := Nop()
	log.Info("nothing", "a", 1)
	log.Error("nothing", errors.New("x"))
	assert.NoError(t, log.Close())
}
