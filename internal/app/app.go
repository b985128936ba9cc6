package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vk/gridprep/internal/artifact"
	"github.com/vk/gridprep/internal/services"
	"github.com/vk/gridprep/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: the resolved settings, the scenario-settings mapping, the
// service provider and the artifact writer.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	logFile  *os.File
	cfg      *Config
	provider services.Provider

	settingsPath string
	base         *settings.Settings
	scenarios    *settings.ScenarioSettings
	writer       *artifact.Writer
}

// New is the constructor for the main application. All startup work happens
// here: the settings file is loaded and resolved, the scenario definitions
// are read, and the per-case settings mapping is built. Any failure in that
// sequence is a fatal startup error and panics; the CLI entrypoint recovers
// and turns it into a clean exit.
func New(outW io.Writer, cfg *Config, provider services.Provider) *App {
	resultsFolder := resolvePath(cfg.RunFolder, cfg.ResultsFolder)
	logger, logFile, err := newRunLogger(cfg, outW, resultsFolder)
	if err != nil {
		panic(fmt.Errorf("failed to open run log: %w", err))
	}
	logger.Debug("Logger configured successfully.")

	settingsPath := resolvePath(cfg.RunFolder, cfg.SettingsFile)

	logger.Info("Reading settings file.", "path", settingsPath)
	base, err := settings.Load(settingsPath)
	if err != nil {
		panic(fmt.Errorf("failed to load settings: %w", err))
	}
	if err := base.Resolve(cfg.RunFolder); err != nil {
		panic(fmt.Errorf("failed to resolve settings: %w", err))
	}

	logger.Info("Reading scenario definitions.", "file", base.ScenarioDefinitionsFn)
	defs, err := settings.LoadScenarioDefinitions(base)
	if err != nil {
		panic(fmt.Errorf("failed to load scenario definitions: %w", err))
	}

	scenarios, err := settings.BuildScenarioSettings(base, defs)
	if err != nil {
		panic(fmt.Errorf("failed to build scenario settings: %w", err))
	}
	logger.Debug("Scenario settings built.", "cases", scenarios.Len())

	return &App{
		outW:         outW,
		logger:       logger,
		logFile:      logFile,
		cfg:          cfg,
		provider:     provider,
		settingsPath: settingsPath,
		base:         base,
		scenarios:    scenarios,
		writer:       artifact.NewWriter(resultsFolder, settingsPath),
	}
}

// Scenarios returns the scenario-settings mapping. This is primarily for
// testing.
func (a *App) Scenarios() *settings.ScenarioSettings { return a.scenarios }

// Close releases the run log file, if one was opened.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

func resolvePath(runFolder, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(runFolder, path)
}
