package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridprep/internal/app"
)

func TestParse_NoSettingsFilePrintsUsage(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{}, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_HelpFlag(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"-h"}, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"--settings-file", "settings.yml"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, ".", cfg.RunFolder)
	assert.Equal(t, "settings.yml", cfg.SettingsFile)
	assert.NotEmpty(t, cfg.ResultsFolder, "results folder defaults to a timestamp")
	assert.Equal(t, app.CacheRecompute, cfg.CacheMode)
	assert.True(t, cfg.Gens)
	assert.True(t, cfg.Load)
	assert.True(t, cfg.Transmission)
	assert.True(t, cfg.Fuel)
	assert.True(t, cfg.CurrentGens)
	assert.False(t, cfg.SortGens)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_Shorthands(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"-sf", "test_settings.yml", "-rf", "out", "/data/run"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "/data/run", cfg.RunFolder)
	assert.Equal(t, "test_settings.yml", cfg.SettingsFile)
	assert.Equal(t, "out", cfg.ResultsFolder)
}

func TestParse_Toggles(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{
		"-sf", "settings.yml",
		"--no-load", "--no-transmission", "--no-current-gens", "--sort-gens",
	}, out)

	require.NoError(t, err)
	assert.False(t, cfg.Load)
	assert.False(t, cfg.Transmission)
	assert.False(t, cfg.CurrentGens)
	assert.True(t, cfg.SortGens)
	assert.True(t, cfg.Gens)
	assert.True(t, cfg.Fuel)
}

func TestParse_NoGensDisablesFuel(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, _, err := Parse([]string{"-sf", "settings.yml", "--no-gens"}, out)

	require.NoError(t, err)
	assert.False(t, cfg.Gens)
	assert.False(t, cfg.Fuel, "the fuel table cannot be created without the generators")
}

func TestParse_InvalidValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad cache", []string{"-sf", "s.yml", "--cache", "sideways"}, "invalid cache"},
		{"bad log format", []string{"-sf", "s.yml", "--log-format", "xml"}, "invalid log-format"},
		{"bad log level", []string{"-sf", "s.yml", "--log-level", "verbose"}, "invalid log-level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	t.Parallel()
	_, _, err := Parse([]string{"--this-is-not-a-valid-flag"}, &bytes.Buffer{})

	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
