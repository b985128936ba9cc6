package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/vk/gridprep/internal/app"
	"github.com/vk/gridprep/internal/cli"
	"github.com/vk/gridprep/internal/provider/fileprov"
)

// main is the entrypoint for the gridprep application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// A .env next to the binary may carry the catalog DSN; absence is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env file.")
	}

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// Startup failures (missing or malformed settings, unreadable scenario
	// definitions) panic inside app.New; recover here to provide a clean
	// exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	gridprepApp := app.New(outW, appConfig, fileprov.New())
	defer gridprepApp.Close()

	return gridprepApp.Run(context.Background())
}
