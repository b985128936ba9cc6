package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunLogger(t *testing.T) {
	t.Run("mirrors output into the run log file", func(t *testing.T) {
		dir := t.TempDir()
		var buf bytes.Buffer
		cfg := &Config{LogLevel: "warn", LogFormat: "json"}

		logger, logFile, err := newRunLogger(cfg, &buf, dir)
		require.NoError(t, err)
		defer logFile.Close()

		logger.Info("below threshold.")
		logger.Warn("recorded.", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "below threshold")
		assert.Contains(t, out, `"msg":"recorded."`)
		assert.Contains(t, out, `"key":"value"`)

		data, err := os.ReadFile(filepath.Join(dir, logFileName))
		require.NoError(t, err)
		assert.Equal(t, out, string(data), "console and log file must carry the same records")
	})

	t.Run("creates the results folder", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "results")
		cfg := &Config{LogLevel: "info", LogFormat: "text"}

		logger, logFile, err := newRunLogger(cfg, &bytes.Buffer{}, dir)
		require.NoError(t, err)
		defer logFile.Close()

		assert.NotNil(t, logger)
		assert.FileExists(t, filepath.Join(dir, logFileName))
	})

	t.Run("text is the default format", func(t *testing.T) {
		dir := t.TempDir()
		var buf bytes.Buffer
		cfg := &Config{LogLevel: "info", LogFormat: "text"}

		logger, logFile, err := newRunLogger(cfg, &buf, dir)
		require.NoError(t, err)
		defer logFile.Close()

		logger.Info("hello.")
		assert.Contains(t, buf.String(), "msg=hello.")
	})
}
