package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// logFileName is the per-run log written inside the results folder.
const logFileName = "log.txt"

// newRunLogger builds the logger for one run. Output is mirrored into
// <results folder>/log.txt so every run keeps its own record next to its
// artifacts; level and format come from the validated config. It does not
// set the global logger, allowing for isolated logger instances. The caller
// owns the returned log file.
func newRunLogger(cfg *Config, outW io.Writer, resultsFolder string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(resultsFolder, 0o755); err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(
		filepath.Join(resultsFolder, logFileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	w := io.MultiWriter(outW, logFile)
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), logFile, nil
}
