package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSettings(t *testing.T, scenarioCSV string) *Settings {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test_settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Resolve(dir))

	require.NoError(t, os.MkdirAll(s.InputFolder, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(s.InputFolder, s.ScenarioDefinitionsFn), []byte(scenarioCSV), 0o600))
	return s
}

const sampleScenarioCSV = `case_id,year,case_name,load_growth
p6,2025,base p6,
p6,2030,base p6,high
p7,2030,low growth,low
`

func TestLoadScenarioDefinitions(t *testing.T) {
	s := loadedSettings(t, sampleScenarioCSV)

	defs, err := LoadScenarioDefinitions(s)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "p6", defs[0].CaseID)
	assert.Equal(t, "base p6", defs[0].CaseName)
	assert.Equal(t, 2025, defs[0].Year)
	assert.Equal(t, map[string]string{"load_growth": ""}, defs[0].Categories)
	assert.Equal(t, "high", defs[1].Categories["load_growth"])
}

func TestLoadScenarioDefinitions_MissingColumns(t *testing.T) {
	s := loadedSettings(t, "case_id,period\np6,2025\n")
	_, err := LoadScenarioDefinitions(s)
	assert.ErrorContains(t, err, `missing "year" column`)
}

func TestLoadScenarioDefinitions_MissingFile(t *testing.T) {
	s := loadedSettings(t, sampleScenarioCSV)
	s2, err := s.Clone()
	require.NoError(t, err)
	s2.ScenarioDefinitionsFn = "absent.csv"
	_, err = LoadScenarioDefinitions(s2)
	assert.Error(t, err)
}

func TestValidateScenarioYears(t *testing.T) {
	s := loadedSettings(t, sampleScenarioCSV)
	defs, err := LoadScenarioDefinitions(s)
	require.NoError(t, err)
	assert.NoError(t, ValidateScenarioYears(s, defs))

	t.Run("unknown year rejected", func(t *testing.T) {
		bad := append([]ScenarioDefinition{}, defs...)
		bad = append(bad, ScenarioDefinition{CaseID: "p9", Year: 2040})
		assert.ErrorContains(t, ValidateScenarioYears(s, bad), "2040")
	})

	t.Run("model year without definitions rejected", func(t *testing.T) {
		only2030 := []ScenarioDefinition{{CaseID: "p6", Year: 2030}}
		assert.ErrorContains(t, ValidateScenarioYears(s, only2030), "2025")
	})
}

func TestBuildScenarioSettings(t *testing.T) {
	s := loadedSettings(t, sampleScenarioCSV)
	defs, err := LoadScenarioDefinitions(s)
	require.NoError(t, err)

	ss, err := BuildScenarioSettings(s, defs)
	require.NoError(t, err)

	// Every (period, scenario) pair in the definitions has an entry.
	assert.Equal(t, len(defs), ss.Len())
	for _, d := range defs {
		_, ok := ss.Case(d.Year, d.CaseID)
		assert.True(t, ok, "missing case %s/%d", d.CaseID, d.Year)
	}

	assert.Equal(t, []int{2025, 2030}, ss.Years())
	assert.Equal(t, []string{"p6", "p7"}, ss.CaseIDs(2030))

	base, _ := ss.Case(2025, "p6")
	assert.Equal(t, 2025, base.CaseYear)
	assert.Equal(t, 2023, base.FirstPlanningYear)
	assert.Equal(t, 0.02, base.Extra["dg_growth_rate"], "no override for 2025")

	high, _ := ss.Case(2030, "p6")
	assert.Equal(t, 2026, high.FirstPlanningYear)
	assert.Equal(t, 0.05, high.Extra["dg_growth_rate"], "high load growth override applied")

	low, _ := ss.Case(2030, "p7")
	assert.Equal(t, 0.01, low.Extra["dg_growth_rate"])
	assert.Equal(t, "low growth", low.CaseName)

	// The base settings object is not mutated by case resolution.
	assert.Equal(t, 0.02, s.Extra["dg_growth_rate"])
}

func TestBuildScenarioSettings_UnknownOption(t *testing.T) {
	s := loadedSettings(t, "case_id,year,load_growth\np6,2025,\np6,2030,extreme\n")
	defs, err := LoadScenarioDefinitions(s)
	require.NoError(t, err)

	_, err = BuildScenarioSettings(s, defs)
	assert.ErrorContains(t, err, `no option "extreme"`)
}

func TestBuildScenarioSettings_Duplicate(t *testing.T) {
	s := loadedSettings(t, "case_id,year\np6,2025\np6,2025\np6,2030\n")
	defs, err := LoadScenarioDefinitions(s)
	require.NoError(t, err)

	_, err = BuildScenarioSettings(s, defs)
	assert.ErrorContains(t, err, "duplicate scenario definition")
}
