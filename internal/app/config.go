package app

import "errors"

// Cache mode values for Config.CacheMode.
const (
	CacheRecompute = "recompute"
	CacheReuse     = "reuse"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RunFolder     string // folder holding the settings file and input folder
	SettingsFile  string // settings file name, resolved against RunFolder
	ResultsFolder string // output folder, resolved against RunFolder

	CacheMode string // recompute from services, or reuse written artifacts

	// Per-output toggles from the CLI surface.
	Gens         bool
	Load         bool
	Transmission bool
	Fuel         bool

	CurrentGens bool // include existing generators in the start-year set
	SortGens    bool // sort generators by region then resource

	CatalogDSN string // optional Postgres catalog for region validation

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SettingsFile == "" {
		return nil, errors.New("SettingsFile is a required configuration field and cannot be empty")
	}
	if cfg.ResultsFolder == "" {
		return nil, errors.New("ResultsFolder is a required configuration field and cannot be empty")
	}
	switch cfg.CacheMode {
	case CacheRecompute, CacheReuse:
	default:
		return nil, errors.New("CacheMode must be 'recompute' or 'reuse'")
	}
	if cfg.Fuel && !cfg.Gens {
		return nil, errors.New("the fuel table cannot be created without the generators")
	}
	return &cfg, nil
}
