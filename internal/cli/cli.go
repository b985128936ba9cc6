package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vk/gridprep/internal/app"
	"github.com/vk/gridprep/internal/catalog"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridprep", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridprep - prepares generator, load and transmission inputs for a
capacity-expansion model from a settings file and scenario definitions.

Usage:
  gridprep [options] [RUN_FOLDER]

Arguments:
  RUN_FOLDER
    Folder containing the settings file and the input folder. Defaults to
    the current directory.

Options:
`)
		flagSet.PrintDefaults()
	}

	settingsFlag := flagSet.String("settings-file", "", "Name of the YAML settings file inside the run folder.")
	sfFlag := flagSet.String("sf", "", "Name of the YAML settings file (shorthand).")
	resultsFlag := flagSet.String("results-folder", "", "Results subfolder to write output. Defaults to a timestamp.")
	rfFlag := flagSet.String("rf", "", "Results subfolder (shorthand).")
	cacheFlag := flagSet.String("cache", app.CacheRecompute, "Artifact handling: 'recompute' from services or 'reuse' written CSVs.")
	noGensFlag := flagSet.Bool("no-gens", false, "Do not calculate generator clusters.")
	noCurrentGensFlag := flagSet.Bool("no-current-gens", false, "Do not include current generators in the start-year set.")
	noLoadFlag := flagSet.Bool("no-load", false, "Do not calculate hourly load; the file will not be written.")
	noTransmissionFlag := flagSet.Bool("no-transmission", false, "Do not calculate transmission constraints; the file will not be written.")
	noFuelFlag := flagSet.Bool("no-fuel", false, "Do not create the fuel table. It cannot be created without the generators.")
	sortGensFlag := flagSet.Bool("sort-gens", false, "Sort generators by region, then resource.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	runFolder := "."
	if flagSet.NArg() > 0 {
		runFolder = flagSet.Arg(0)
	}

	settingsFile := *settingsFlag
	if settingsFile == "" {
		settingsFile = *sfFlag
	}
	if settingsFile == "" {
		slog.Debug("No settings file provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	resultsFolder := *resultsFlag
	if resultsFolder == "" {
		resultsFolder = *rfFlag
	}
	if resultsFolder == "" {
		resultsFolder = time.Now().Format("2006-01-02 15.04.05")
	}

	cacheMode := strings.ToLower(*cacheFlag)
	if cacheMode != app.CacheRecompute && cacheMode != app.CacheReuse {
		return nil, false, &ExitError{Code: 2, Message: "invalid cache: must be 'recompute' or 'reuse'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		RunFolder:     runFolder,
		SettingsFile:  settingsFile,
		ResultsFolder: resultsFolder,
		CacheMode:     cacheMode,
		Gens:          !*noGensFlag,
		Load:          !*noLoadFlag,
		Transmission:  !*noTransmissionFlag,
		Fuel:          !*noFuelFlag && !*noGensFlag,
		CurrentGens:   !*noCurrentGensFlag,
		SortGens:      *sortGensFlag,
		CatalogDSN:    os.Getenv(catalog.EnvDSN),
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
