package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		RunFolder:     ".",
		SettingsFile:  "settings.yml",
		ResultsFolder: "results",
		CacheMode:     CacheRecompute,
		Gens:          true,
		Fuel:          true,
	}
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfig(validConfig())
		require.NoError(t, err)
		assert.NotNil(t, cfg)
	})

	t.Run("missing settings file", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.SettingsFile = ""
		_, err := NewConfig(c)
		assert.ErrorContains(t, err, "SettingsFile")
	})

	t.Run("missing results folder", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.ResultsFolder = ""
		_, err := NewConfig(c)
		assert.ErrorContains(t, err, "ResultsFolder")
	})

	t.Run("invalid cache mode", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.CacheMode = "refresh"
		_, err := NewConfig(c)
		assert.ErrorContains(t, err, "CacheMode")
	})

	t.Run("fuel without generators", func(t *testing.T) {
		t.Parallel()
		c := validConfig()
		c.Gens = false
		_, err := NewConfig(c)
		assert.ErrorContains(t, err, "fuel table cannot be created without the generators")
	})
}
