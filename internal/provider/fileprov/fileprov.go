// Package fileprov is the file-backed reference implementation of the
// external service interfaces. It serves precomputed tables from the run's
// input folder: cluster tables, load curves and transmission constraints are
// produced upstream, so this provider only reads them and applies the
// arithmetic transmission augmentations. The clustering and time-series
// reduction algorithms themselves are deliberately not implemented here.
package fileprov

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/gridprep/internal/ctxlog"
	"github.com/vk/gridprep/internal/fsutil"
	"github.com/vk/gridprep/internal/services"
	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// Input fixture file names, relative to the input folder.
const (
	ExistingGenFile  = "existing_gen.csv"
	LoadCurvesFile   = "load_curves.csv"
	VariabilityFile  = "resource_variability.csv"
	TransmissionFile = "transmission_constraints.csv"
	FuelCostsFile    = "fuel_costs.csv"

	// ReducedResourceFile and ReducedLoadFile hold precomputed reduced
	// profiles. When absent, reduction falls through to the full profiles.
	ReducedResourceFile = "reduced_resource_profile.csv"
	ReducedLoadFile     = "reduced_load_profile.csv"
)

// NewGenFile returns the per-period new-build fixture name.
func NewGenFile(year int) string {
	return fmt.Sprintf("new_gen_%d.csv", year)
}

// Transmission table column names used by the augmentation calls.
const (
	ColStartRegion        = "start_region"
	ColDestRegion         = "dest_region"
	ColExistingCapacityMW = "existing_capacity_mw"
	ColDistanceMile       = "distance_mile"
	ColLineLossPct        = "line_loss_percentage"
	ColReinforcementCost  = "line_reinforcement_cost_per_mw"
	ColMaxReinforcement   = "line_max_reinforcement_mw"
)

// Provider implements services.Provider from CSV fixtures in the input
// folder named by each case's settings. The pipeline is single-threaded, so
// no locking guards the validation cache.
type Provider struct {
	validated map[string]bool
}

var _ services.Provider = (*Provider)(nil)

// New returns a file-backed provider. Input folders are validated lazily on
// first use, since the folder comes from the resolved settings.
func New() *Provider {
	return &Provider{validated: map[string]bool{}}
}

// folder validates the case's input folder once: it must exist and contain
// at least one CSV fixture.
func (p *Provider) folder(s *settings.Settings) (string, error) {
	dir := s.InputFolder
	if p.validated[dir] {
		return dir, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("fileprov: input folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("fileprov: input folder %s is not a directory", dir)
	}
	files, err := fsutil.FindFilesByExtension(dir, ".csv")
	if err != nil {
		return "", fmt.Errorf("fileprov: scan input folder: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("fileprov: input folder %s contains no CSV fixtures", dir)
	}
	p.validated[dir] = true
	return dir, nil
}

func (p *Provider) read(s *settings.Settings, name string) (*table.Table, error) {
	dir, err := p.folder(s)
	if err != nil {
		return nil, err
	}
	return table.ReadCSVFile(filepath.Join(dir, name))
}

// Generators implements services.Provider.
func (p *Provider) Generators() services.GeneratorService { return (*generatorService)(p) }

// Load implements services.Provider.
func (p *Provider) Load() services.LoadService { return (*loadService)(p) }

// Reduction implements services.Provider.
func (p *Provider) Reduction() services.ReductionService { return (*reductionService)(p) }

// Transmission implements services.Provider.
func (p *Provider) Transmission() services.TransmissionService { return (*transmissionService)(p) }

// Fuel implements services.Provider.
func (p *Provider) Fuel() services.FuelService { return (*fuelService)(p) }

type generatorService Provider

func (g *generatorService) AllGenerators(ctx context.Context, s *settings.Settings) (*table.Table, error) {
	p := (*Provider)(g)
	existing, err := p.read(s, ExistingGenFile)
	if err != nil {
		return nil, err
	}
	newGens, err := p.read(s, NewGenFile(s.CaseYear))
	if err != nil {
		return nil, err
	}
	if err := existing.Append(newGens); err != nil {
		return nil, fmt.Errorf("fileprov: existing and new-gen fixtures must share columns: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Served start-year generator set.",
		"rows", existing.Len(), "year", s.CaseYear)
	return existing, nil
}

func (g *generatorService) NewGenerators(ctx context.Context, s *settings.Settings) (*table.Table, error) {
	t, err := (*Provider)(g).read(s, NewGenFile(s.CaseYear))
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Served new-build generator set.",
		"rows", t.Len(), "year", s.CaseYear)
	return t, nil
}

func (g *generatorService) Variability(_ context.Context, s *settings.Settings, _ *table.Table) (*table.Table, error) {
	return (*Provider)(g).read(s, VariabilityFile)
}

type loadService Provider

func (l *loadService) FinalLoadCurves(_ context.Context, s *settings.Settings) (*table.Table, error) {
	return (*Provider)(l).read(s, LoadCurvesFile)
}

type reductionService Provider

// ReduceTimeDomain serves the precomputed reduced profiles when present and
// falls back to the full-resolution inputs otherwise. The reduction
// algorithm itself runs upstream of this provider.
func (r *reductionService) ReduceTimeDomain(ctx context.Context, s *settings.Settings, variability, load *table.Table) (*table.Table, *table.Table, error) {
	p := (*Provider)(r)
	resource, rerr := p.read(s, ReducedResourceFile)
	reduced, lerr := p.read(s, ReducedLoadFile)
	if rerr != nil || lerr != nil {
		ctxlog.FromContext(ctx).Debug("No precomputed reduced profiles; using full-resolution tables.")
		return variability.Clone(), load.Clone(), nil
	}
	return resource, reduced, nil
}

type transmissionService Provider

func (t *transmissionService) AggregateConstraints(_ context.Context, s *settings.Settings) (*table.Table, error) {
	return (*Provider)(t).read(s, TransmissionFile)
}

// LineDistance serves precomputed distances: the fixture must already carry
// the distance column, since shapefile-based distance computation happens
// upstream.
func (t *transmissionService) LineDistance(_ context.Context, _ *settings.Settings, tx *table.Table) (*table.Table, error) {
	if !tx.HasColumn(ColDistanceMile) {
		return nil, fmt.Errorf("fileprov: transmission fixture is missing %q; distances must be precomputed", ColDistanceMile)
	}
	return tx, nil
}

// LineLoss adds the loss percentage column: distance times the per-100-mile
// loss rate.
func (t *transmissionService) LineLoss(_ context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error) {
	out := tx.Clone()
	err := out.AddComputedColumn(ColLineLossPct, func(row table.Row) (string, error) {
		distance, err := row.Float(ColDistanceMile)
		if err != nil {
			return "", err
		}
		return table.FormatFloat(distance * s.TxLineLoss100Miles / 100), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReinforcementCost adds the $/MW reinforcement cost column: distance times
// the mean of the two endpoint regions' per-MW-mile costs.
func (t *transmissionService) ReinforcementCost(_ context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error) {
	out := tx.Clone()
	err := out.AddComputedColumn(ColReinforcementCost, func(row table.Row) (string, error) {
		distance, err := row.Float(ColDistanceMile)
		if err != nil {
			return "", err
		}
		start, err := row.Get(ColStartRegion)
		if err != nil {
			return "", err
		}
		dest, err := row.Get(ColDestRegion)
		if err != nil {
			return "", err
		}
		startCost, ok := s.TxReinforcementCostMWMile[start]
		if !ok {
			return "", fmt.Errorf("fileprov: no tx_reinforcement_cost_mw_mile for region %q", start)
		}
		destCost, ok := s.TxReinforcementCostMWMile[dest]
		if !ok {
			return "", fmt.Errorf("fileprov: no tx_reinforcement_cost_mw_mile for region %q", dest)
		}
		return table.FormatFloat(distance * (startCost + destCost) / 2), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaxReinforcement adds the max reinforcement column: existing line capacity
// times the configured multiplier.
func (t *transmissionService) MaxReinforcement(_ context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error) {
	out := tx.Clone()
	err := out.AddComputedColumn(ColMaxReinforcement, func(row table.Row) (string, error) {
		capacity, err := row.Float(ColExistingCapacityMW)
		if err != nil {
			return "", err
		}
		return table.FormatFloat(capacity * s.TxMaxReinforcementMult), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type fuelService Provider

func (f *fuelService) FuelCostTable(_ context.Context, s *settings.Settings, _ *table.Table) (*table.Table, error) {
	return (*Provider)(f).read(s, FuelCostsFile)
}
