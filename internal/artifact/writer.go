// Package artifact writes the pipeline's output tables as CSV files under
// the run folder, and reads them back when a cached run is reused. File
// names are formed from the settings file name with its extension replaced
// by a fixed per-artifact suffix.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// Artifact suffixes. The table for suffix S is written to
// <run folder>/<settings stem>_<S>.csv.
const (
	ReducedLoadProfile     = "reduced_load_profile"
	ReducedResourceProfile = "reduced_resource_profile"
	AllGens                = "all_gens"
	NewGen                 = "new_gen"
	Transmission           = "transmission"
	Fuels                  = "fuels"
	TechnologyCosts        = "technology_costs"
)

// Writer knows the run folder and the settings file stem that every
// artifact path is derived from.
type Writer struct {
	runFolder    string
	settingsPath string
	stem         string
}

// NewWriter builds a writer for one run. settingsPath is the path of the
// settings file the run was started with; its base name without extension
// becomes the artifact stem.
func NewWriter(runFolder, settingsPath string) *Writer {
	base := filepath.Base(settingsPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return &Writer{runFolder: runFolder, settingsPath: settingsPath, stem: stem}
}

// Path returns the artifact file path for a suffix.
func (w *Writer) Path(suffix string) string {
	return filepath.Join(w.runFolder, fmt.Sprintf("%s_%s.csv", w.stem, suffix))
}

// WriteTable writes one artifact. The run folder is created on demand.
// Writes are not atomic: a failure later in the pipeline can leave a subset
// of the artifacts on disk.
func (w *Writer) WriteTable(suffix string, t *table.Table) error {
	if err := t.WriteCSVFile(w.Path(suffix)); err != nil {
		return fmt.Errorf("artifact: write %s: %w", suffix, err)
	}
	return nil
}

// ReadTable reloads a previously written artifact into the same in-memory
// shape it was written from. No freshness check is performed.
func (w *Writer) ReadTable(suffix string) (*table.Table, error) {
	t, err := table.ReadCSVFile(w.Path(suffix))
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", suffix, err)
	}
	return t, nil
}

// HasTable reports whether the artifact file for a suffix exists.
func (w *Writer) HasTable(suffix string) bool {
	_, err := os.Stat(w.Path(suffix))
	return err == nil
}

// CopySettingsFile copies the run's settings file into the run folder so
// every run records the configuration it was produced from. Copying onto
// itself (settings already inside the run folder) is skipped.
func (w *Writer) CopySettingsFile() error {
	dstPath := filepath.Join(w.runFolder, filepath.Base(w.settingsPath))
	if dstPath == w.settingsPath {
		return nil
	}
	src, err := os.Open(w.settingsPath)
	if err != nil {
		return fmt.Errorf("artifact: open settings: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(w.runFolder, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir run folder: %w", err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("artifact: copy settings: %w", err)
	}
	return dst.Close()
}

// WriteCaseSettings writes a fully resolved per-case settings value back out
// as YAML so a case can be audited or reproduced later.
func (w *Writer) WriteCaseSettings(s *settings.Settings) error {
	if err := os.MkdirAll(w.runFolder, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir run folder: %w", err)
	}
	name := fmt.Sprintf("%s_case_%d_%s.yml", w.stem, s.CaseYear, s.CaseID)
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("artifact: marshal case settings: %w", err)
	}
	path := filepath.Join(w.runFolder, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}
