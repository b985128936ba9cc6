package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
model_regions:
  - CA_S
  - CA_N
region_aggregations:
  CA_N: [CIPV, CIPB]
  CA_S: [CISO]
model_year: [2025, 2030]
model_first_planning_year: [2023, 2026]
input_folder: inputs
scenario_definitions_fn: scenarios.csv
generator_columns: [resource, region, cluster, capacity_mw, operating_year]
tx_line_loss_100_miles: 1.5
tx_reinforcement_cost_mw_mile:
  CA_N: 1200
  CA_S: 1450
tx_max_reinforcement_mult: 2.0
dg_growth_rate: 0.02
settings_management:
  2030:
    load_growth:
      high:
        dg_growth_rate: 0.05
      low:
        dg_growth_rate: 0.01
`

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test_settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"CA_S", "CA_N"}, s.ModelRegions)
	assert.Equal(t, []int{2025, 2030}, s.ModelYear)
	assert.Equal(t, "scenarios.csv", s.ScenarioDefinitionsFn)
	assert.Equal(t, 1.5, s.TxLineLoss100Miles)

	// Unmodeled keys land in Extra.
	assert.Equal(t, 0.02, s.Extra["dg_growth_rate"])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeSettings(t, "model_regions: [unterminated")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse")
}

func TestLoad_YearLengthMismatch(t *testing.T) {
	path := writeSettings(t, `
model_year: [2025, 2030]
model_first_planning_year: [2023]
input_folder: inputs
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "must match")
}

func TestResolve(t *testing.T) {
	path := writeSettings(t, sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)

	runFolder := filepath.Dir(path)
	require.NoError(t, s.Resolve(runFolder))
	assert.True(t, filepath.IsAbs(s.InputFolder))
	assert.Equal(t, filepath.Join(runFolder, "inputs"), s.InputFolder)

	t.Run("absolute path kept as-is", func(t *testing.T) {
		abs := t.TempDir()
		s2 := &Settings{InputFolder: abs}
		require.NoError(t, s2.Resolve("/elsewhere"))
		assert.Equal(t, abs, s2.InputFolder)
	})
}

func TestZoneMap(t *testing.T) {
	s := &Settings{ModelRegions: []string{"CA_S", "CA_N", "AZ"}}

	assert.Equal(t, []string{"AZ", "CA_N", "CA_S"}, s.SortedModelRegions())
	assert.Equal(t, map[string]string{"AZ": "1", "CA_N": "2", "CA_S": "3"}, s.ZoneMap())
	// The settings value itself is untouched.
	assert.Equal(t, []string{"CA_S", "CA_N", "AZ"}, s.ModelRegions)
}

func TestInvalidRegions(t *testing.T) {
	s := &Settings{
		ModelRegions:       []string{"CA_N", "CA_S", "TX"},
		RegionAggregations: map[string][]string{"CA_N": {"CIPV"}},
	}
	bad := s.InvalidRegions([]string{"CA_S"})
	assert.Equal(t, []string{"TX"}, bad)
}

func TestClone_Isolated(t *testing.T) {
	path := writeSettings(t, sampleYAML)
	s, err := Load(path)
	require.NoError(t, err)

	cp, err := s.Clone()
	require.NoError(t, err)
	cp.RegionAggregations["CA_N"][0] = "mutated"
	cp.Extra["dg_growth_rate"] = 0.99

	assert.Equal(t, "CIPV", s.RegionAggregations["CA_N"][0])
	assert.Equal(t, 0.02, s.Extra["dg_growth_rate"])
}

func TestFirstModelYear(t *testing.T) {
	s := &Settings{ModelYear: []int{2030, 2025}}
	assert.Equal(t, 2025, s.FirstModelYear())
}
