package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewNopLogger()
	logger.AddOutput(NewConsoleOutput(&buf, FormatText))
	logger.SetLevel(LevelInfo)

	logger.Debug("hidden")
	logger.Info("scan finished", F("files", 3), F("dir", "/tmp/x"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] scan finished dir=/tmp/x files=3")
}

func TestLoggerWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewNopLogger()
	logger.AddOutput(NewConsoleOutput(&buf, FormatJSON))
	logger.SetLevel(LevelDebug)

	child := logger.With(F("session", "abc"))
	child.Debugf("parsed %d lines", 12)

	out := strings.TrimSpace(buf.String())
	assert.Contains(t, out, `"message":"parsed 12 lines"`)
	assert.Contains(t, out, `"session":"abc"`)
	assert.Contains(t, out, `"level":"DEBUG"`)
}

func TestNopLoggerIsDisabled(t *testing.T) {
	logger := NewNopLogger()
	assert.False(t, logger.Enabled(LevelError))
	logger.Error("nothing happens")
}

func TestNewLoggerRequiresDestination(t *testing.T) {
	_, err := NewLogger("info", "", false)
	require.Error(t, err)

	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := NewLogger("warn", logFile, false)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "[WARN] kept")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLogLevel("bogus"))
}
