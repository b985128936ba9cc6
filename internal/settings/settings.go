// Package settings loads the YAML run configuration and the CSV scenario
// definitions, and resolves them into one immutable settings value per
// (planning year, case) pair. A failure anywhere in here is a fatal startup
// error; nothing is retried.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings models the keys of the run settings file that the pipeline itself
// interprets. Everything else lands in Extra so service implementations can
// read keys the driver does not care about.
type Settings struct {
	ModelRegions           []string            `yaml:"model_regions"`
	RegionAggregations     map[string][]string `yaml:"region_aggregations"`
	ModelYear              []int               `yaml:"model_year"`
	ModelFirstPlanningYear []int               `yaml:"model_first_planning_year"`
	InputFolder            string              `yaml:"input_folder"`
	ScenarioDefinitionsFn  string              `yaml:"scenario_definitions_fn"`
	GeneratorColumns       []string            `yaml:"generator_columns"`

	// Transmission augmentation parameters.
	TxLineLoss100Miles        float64            `yaml:"tx_line_loss_100_miles"`
	TxReinforcementCostMWMile map[string]float64 `yaml:"tx_reinforcement_cost_mw_mile"`
	TxMaxReinforcementMult    float64            `yaml:"tx_max_reinforcement_mult"`

	// Catalog cost-table parameters.
	ATBCapRecoveryYears int    `yaml:"atb_cap_recovery_years"`
	ATBFinancialCase    string `yaml:"atb_financial_case"`
	ATBUSDYear          int    `yaml:"atb_usd_year"`
	TargetUSDYear       int    `yaml:"target_usd_year"`

	// SettingsManagement holds per-year override fragments keyed by
	// category, then option name. A scenario definition row selects one
	// option per category column.
	SettingsManagement map[int]map[string]map[string]map[string]any `yaml:"settings_management"`

	// Extra catches every key not modeled above.
	Extra map[string]any `yaml:",inline"`

	// Per-case fields, populated only on resolved case settings.
	CaseID            string `yaml:"case_id,omitempty"`
	CaseName          string `yaml:"case_name,omitempty"`
	CaseYear          int    `yaml:"case_year,omitempty"`
	FirstPlanningYear int    `yaml:"first_planning_year,omitempty"`
}

// Load reads and decodes the settings file. Missing or malformed files are
// errors; the caller treats them as fatal.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if len(s.ModelYear) == 0 {
		return nil, fmt.Errorf("settings: %s: model_year must list at least one planning year", path)
	}
	if len(s.ModelYear) != len(s.ModelFirstPlanningYear) {
		return nil, fmt.Errorf(
			"settings: %s: model_year has %d entries but model_first_planning_year has %d; they must match",
			path, len(s.ModelYear), len(s.ModelFirstPlanningYear),
		)
	}
	return &s, nil
}

// Resolve anchors the input folder at the run folder, turning it into an
// absolute path. Settings are immutable after this call.
func (s *Settings) Resolve(runFolder string) error {
	if s.InputFolder == "" {
		return fmt.Errorf("settings: input_folder is required")
	}
	if !filepath.IsAbs(s.InputFolder) {
		abs, err := filepath.Abs(filepath.Join(runFolder, s.InputFolder))
		if err != nil {
			return fmt.Errorf("settings: resolve input_folder: %w", err)
		}
		s.InputFolder = abs
	}
	return nil
}

// Clone returns a deep copy via a YAML round trip, so nested maps in Extra
// and SettingsManagement are never shared between cases.
func (s *Settings) Clone() (*Settings, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("settings: clone marshal: %w", err)
	}
	var out Settings
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("settings: clone unmarshal: %w", err)
	}
	return &out, nil
}

// applyOverride merges an override fragment into s. Keys present in the
// fragment replace the matching settings keys; map values merge key-wise the
// way yaml decoding into an existing map does.
func (s *Settings) applyOverride(fragment map[string]any) error {
	if len(fragment) == 0 {
		return nil
	}
	data, err := yaml.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("settings: marshal override: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("settings: apply override: %w", err)
	}
	return nil
}

// SortedModelRegions returns the model regions in sorted order. Zone numbers
// and load column names depend on this ordering being applied everywhere.
func (s *Settings) SortedModelRegions() []string {
	regions := slices.Clone(s.ModelRegions)
	slices.Sort(regions)
	return regions
}

// ZoneMap numbers the sorted model regions from "1" upward.
func (s *Settings) ZoneMap() map[string]string {
	zones := make(map[string]string, len(s.ModelRegions))
	for i, region := range s.SortedModelRegions() {
		zones[region] = strconv.Itoa(i + 1)
	}
	return zones
}

// InvalidRegions returns the model regions that are neither in the known
// region list nor a region aggregation key. The original treats these as a
// warning, not an error.
func (s *Settings) InvalidRegions(known []string) []string {
	valid := make(map[string]bool, len(known)+len(s.RegionAggregations))
	for _, r := range known {
		valid[r] = true
	}
	for agg := range s.RegionAggregations {
		valid[agg] = true
	}
	var bad []string
	for _, r := range s.ModelRegions {
		if !valid[r] {
			bad = append(bad, r)
		}
	}
	return bad
}

// FirstModelYear returns the earliest planning year.
func (s *Settings) FirstModelYear() int {
	return slices.Min(s.ModelYear)
}
