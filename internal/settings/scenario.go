package settings

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/vk/gridprep/internal/table"
)

// ScenarioDefinition is one row of the scenario definitions CSV: a case id,
// the planning year it applies to, and the option selected for each
// settings-management category column.
type ScenarioDefinition struct {
	CaseID     string
	CaseName   string
	Year       int
	Categories map[string]string
}

// LoadScenarioDefinitions reads the scenario definitions CSV from the input
// folder. The file must have case_id and year columns; a case_name column is
// optional and defaults to the case id. Every other column is treated as a
// settings-management category.
func LoadScenarioDefinitions(s *Settings) ([]ScenarioDefinition, error) {
	if s.ScenarioDefinitionsFn == "" {
		return nil, fmt.Errorf("settings: scenario_definitions_fn is required")
	}
	path := filepath.Join(s.InputFolder, s.ScenarioDefinitionsFn)
	t, err := table.ReadCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: scenario definitions: %w", err)
	}
	for _, required := range []string{"case_id", "year"} {
		if !t.HasColumn(required) {
			return nil, fmt.Errorf("settings: scenario definitions %s: missing %q column", path, required)
		}
	}

	defs := make([]ScenarioDefinition, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.RowView(i)
		caseID, _ := row.Get("case_id")
		rawYear, _ := row.Get("year")
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			return nil, fmt.Errorf("settings: scenario definitions %s row %d: bad year %q", path, i, rawYear)
		}
		def := ScenarioDefinition{
			CaseID:     caseID,
			CaseName:   caseID,
			Year:       year,
			Categories: map[string]string{},
		}
		if t.HasColumn("case_name") {
			if name, _ := row.Get("case_name"); name != "" {
				def.CaseName = name
			}
		}
		for _, col := range t.Columns {
			if col == "case_id" || col == "year" || col == "case_name" {
				continue
			}
			v, _ := row.Get(col)
			def.Categories[col] = v
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ValidateScenarioYears checks that the scenario definition years are exactly
// the settings model years.
func ValidateScenarioYears(s *Settings, defs []ScenarioDefinition) error {
	defYears := map[int]bool{}
	for _, d := range defs {
		defYears[d.Year] = true
	}
	modelYears := map[int]bool{}
	for _, y := range s.ModelYear {
		modelYears[y] = true
	}
	for y := range defYears {
		if !modelYears[y] {
			return fmt.Errorf("settings: scenario definitions use year %d which is not in model_year", y)
		}
	}
	for y := range modelYears {
		if !defYears[y] {
			return fmt.Errorf("settings: model_year %d has no scenario definitions", y)
		}
	}
	return nil
}

// CaseKey identifies one resolved case.
type CaseKey struct {
	Year   int
	CaseID string
}

// ScenarioSettings maps every (planning year, case id) pair from the
// definitions table to a fully resolved settings value. It is read-only
// during the pipeline.
type ScenarioSettings struct {
	years []int
	order map[int][]string
	cases map[CaseKey]*Settings
}

// BuildScenarioSettings resolves one settings value per scenario definition:
// a deep clone of the base settings, narrowed to the definition's year, with
// the per-category overrides from settings_management merged in.
func BuildScenarioSettings(base *Settings, defs []ScenarioDefinition) (*ScenarioSettings, error) {
	if err := ValidateScenarioYears(base, defs); err != nil {
		return nil, err
	}

	ss := &ScenarioSettings{
		order: map[int][]string{},
		cases: map[CaseKey]*Settings{},
	}
	for _, d := range defs {
		resolved, err := resolveCase(base, d)
		if err != nil {
			return nil, err
		}
		key := CaseKey{Year: d.Year, CaseID: d.CaseID}
		if _, dup := ss.cases[key]; dup {
			return nil, fmt.Errorf("settings: duplicate scenario definition for case %q year %d", d.CaseID, d.Year)
		}
		ss.cases[key] = resolved
		ss.order[d.Year] = append(ss.order[d.Year], d.CaseID)
		if !slices.Contains(ss.years, d.Year) {
			ss.years = append(ss.years, d.Year)
		}
	}
	slices.Sort(ss.years)
	return ss, nil
}

func resolveCase(base *Settings, d ScenarioDefinition) (*Settings, error) {
	resolved, err := base.Clone()
	if err != nil {
		return nil, err
	}
	resolved.CaseID = d.CaseID
	resolved.CaseName = d.CaseName
	resolved.CaseYear = d.Year

	idx := slices.Index(base.ModelYear, d.Year)
	if idx < 0 {
		return nil, fmt.Errorf("settings: year %d not in model_year", d.Year)
	}
	resolved.FirstPlanningYear = base.ModelFirstPlanningYear[idx]

	yearOverrides := base.SettingsManagement[d.Year]
	for category, option := range d.Categories {
		if option == "" {
			continue
		}
		options, ok := yearOverrides[category]
		if !ok {
			// A category column with no matching settings_management block
			// is informational only (e.g. a free-text description column).
			continue
		}
		fragment, ok := options[option]
		if !ok {
			return nil, fmt.Errorf(
				"settings: case %q year %d: category %q has no option %q in settings_management",
				d.CaseID, d.Year, category, option,
			)
		}
		if err := resolved.applyOverride(fragment); err != nil {
			return nil, fmt.Errorf("settings: case %q year %d category %q: %w", d.CaseID, d.Year, category, err)
		}
	}
	return resolved, nil
}

// Years returns the planning years in ascending order.
func (ss *ScenarioSettings) Years() []int { return slices.Clone(ss.years) }

// CaseIDs returns the case ids for a year, in definition order.
func (ss *ScenarioSettings) CaseIDs(year int) []string {
	return slices.Clone(ss.order[year])
}

// Case returns the resolved settings for one (year, case id) pair.
func (ss *ScenarioSettings) Case(year int, caseID string) (*Settings, bool) {
	s, ok := ss.cases[CaseKey{Year: year, CaseID: caseID}]
	return s, ok
}

// Len returns the number of resolved cases.
func (ss *ScenarioSettings) Len() int { return len(ss.cases) }
