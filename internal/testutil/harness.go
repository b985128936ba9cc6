// Package testutil provides an integration-test harness: it lays out a
// temporary run folder (settings file, scenario definitions, input fixtures),
// runs the application against it with a captured logger, and hands back the
// result for assertions.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/gridprep/internal/app"
	"github.com/vk/gridprep/internal/provider/fileprov"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput     string
	Err           error
	App           *app.App
	RunFolder     string
	ResultsFolder string
}

// DefaultRunFiles returns a complete, consistent run folder: a settings
// file with two planning periods and two model regions, one scenario across
// both periods, and the input fixtures the file-backed provider reads.
// Paths are relative to the run folder; callers may override any entry.
func DefaultRunFiles() map[string]string {
	return map[string]string{
		"settings.yml": `
model_regions: [CA_N, CA_S]
region_aggregations:
  CA_N: [CA_N]
  CA_S: [CA_S]
model_year: [2025, 2030]
model_first_planning_year: [2025, 2026]
input_folder: inputs
scenario_definitions_fn: scenarios.csv
generator_columns: [resource, region, cluster, capacity_mw, zone]
tx_line_loss_100_miles: 1.5
tx_reinforcement_cost_mw_mile:
  CA_N: 1200
  CA_S: 1400
tx_max_reinforcement_mult: 2.0
settings_management:
  2025:
    load_growth:
      high:
        dg_growth_rate: 0.02
  2030:
    load_growth:
      high:
        dg_growth_rate: 0.03
`,
		"inputs/scenarios.csv": "case_id,year,case_name,load_growth\n" +
			"p6,2025,base,high\n" +
			"p6,2030,base,high\n",
		"inputs/existing_gen.csv": "resource,region,cluster,capacity_mw,operating_year\n" +
			"ngcc,CA_N,1,500,2005\n" +
			"wind,CA_S,1,150,2012\n",
		"inputs/new_gen_2025.csv": "resource,region,cluster,capacity_mw,operating_year\n" +
			"solar_pv,CA_S,2,200,\n",
		"inputs/new_gen_2030.csv": "resource,region,cluster,capacity_mw,build_cost\n" +
			"battery,CA_N,1,75,900\n",
		"inputs/load_curves.csv": "CA_N,CA_S\n100,200\n110,195\n",
		// One column per start-year generator row.
		"inputs/resource_variability.csv": "g1,g2,g3\n1,0.4,0.9\n1,0.6,0.1\n",
		"inputs/transmission_constraints.csv": "start_region,dest_region,existing_capacity_mw,distance_mile\n" +
			"CA_N,CA_S,4000,250\n",
		"inputs/fuel_costs.csv": "fuel,price\n" +
			"naturalgas,3.0\n" +
			"coal,1.8\n" +
			"naturalgas,3.2\n",
	}
}

// DefaultConfig returns the configuration the harness runs with unless a
// test mutates it: every output enabled, recompute mode, debug text logs.
func DefaultConfig(runFolder string) app.Config {
	return app.Config{
		RunFolder:     runFolder,
		SettingsFile:  "settings.yml",
		ResultsFolder: "results",
		CacheMode:     app.CacheRecompute,
		Gens:          true,
		Load:          true,
		Transmission:  true,
		Fuel:          true,
		CurrentGens:   true,
		LogFormat:     "text",
		LogLevel:      "debug",
	}
}

// WriteRunFiles lays the given files out under the run folder, creating
// subdirectories as needed.
func WriteRunFiles(t *testing.T, runFolder string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(runFolder, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunPipelineTest writes the given run-folder files into a temp directory,
// builds the app over the file-backed provider and runs the full pipeline.
// Startup panics are recovered into HarnessResult.Err. mutate may be nil.
func RunPipelineTest(t *testing.T, files map[string]string, mutate func(*app.Config)) *HarnessResult {
	t.Helper()
	runFolder := t.TempDir()
	WriteRunFiles(t, runFolder, files)
	return RunPipelineTestAt(t, runFolder, mutate)
}

// RunPipelineTestAt runs the pipeline over an existing run folder, so tests
// can execute several runs against the same artifacts.
func RunPipelineTestAt(t *testing.T, runFolder string, mutate func(*app.Config)) *HarnessResult {
	t.Helper()

	cfg := DefaultConfig(runFolder)
	if mutate != nil {
		mutate(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{
		RunFolder:     runFolder,
		ResultsFolder: filepath.Join(runFolder, cfg.ResultsFolder),
	}

	var testApp *app.App
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp = app.New(logBuffer, appConfig, fileprov.New())
	}()
	if result.Err != nil {
		result.LogOutput = logBuffer.String()
		return result
	}
	t.Cleanup(func() { testApp.Close() })

	result.App = testApp
	result.Err = testApp.Run(context.Background())
	result.LogOutput = logBuffer.String()
	return result
}
