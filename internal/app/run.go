package app

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/gridprep/internal/artifact"
	"github.com/vk/gridprep/internal/catalog"
	"github.com/vk/gridprep/internal/ctxlog"
	"github.com/vk/gridprep/internal/pipeline"
	"github.com/vk/gridprep/internal/postprocess"
	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// Run executes the preparation pipeline: one fixed sequence of synchronous
// stages over every (planning period, case) pair, followed by the
// multi-period post-processing. The first error aborts the run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	a.syncCatalog(ctx)

	if err := a.writer.CopySettingsFile(); err != nil {
		return err
	}

	st := &pipeline.State{ZoneMap: a.base.ZoneMap()}

	if a.cfg.CacheMode == CacheReuse {
		a.logger.Info("Cache mode is reuse; reloading artifacts from a previous run.")
		return a.reloadFromCache(ctx, st)
	}

	p := &pipeline.Pipeline{
		Name: "prepare",
		Stages: []pipeline.Stage{
			{Name: "generators", Run: a.runGenerators},
			{Name: "fuels", Run: a.runFuels},
			{Name: "load", Run: a.runLoad},
			{Name: "transmission", Run: a.runTransmission},
			{Name: "postprocess", Run: a.runPostprocess},
			{Name: "case_settings", Run: a.writeCaseSettings},
		},
	}
	return p.Run(ctx, st)
}

// syncCatalog checks the model regions against the catalog's region
// registry and records the run's ATB technology costs when a catalog DSN is
// configured. Matching the original, every catalog problem is a warning,
// never a run abort.
func (a *App) syncCatalog(ctx context.Context) {
	if a.cfg.CatalogDSN == "" {
		a.logger.Warn("No catalog DSN configured; skipping catalog lookups.")
		return
	}
	cat, err := catalog.Open(ctx, a.cfg.CatalogDSN)
	if err != nil {
		a.logger.Warn("Catalog unavailable; skipping catalog lookups.", "error", err)
		return
	}
	defer cat.Close()

	known, err := cat.Regions(ctx)
	if err != nil {
		a.logger.Warn("Could not read region registry; skipping region validation.", "error", err)
	} else if bad := a.base.InvalidRegions(known); len(bad) > 0 {
		a.logger.Warn(
			"One or more model regions is not valid. Check that all regions are in the catalog or in region_aggregations.",
			"regions", strings.Join(bad, ", "),
		)
	}

	costs, err := cat.TechnologyCosts(ctx, a.base)
	if err != nil {
		a.logger.Warn("Could not read technology costs from the catalog.", "error", err)
		return
	}
	if err := a.writer.WriteTable(artifact.TechnologyCosts, catalog.CostTable(costs)); err != nil {
		a.logger.Warn("Could not write the technology cost table.", "error", err)
	}
}

// firstCase returns the resolved settings of the first (period, scenario)
// pair: the lowest planning year, first case in definition order.
func (a *App) firstCase() (*settings.Settings, error) {
	years := a.scenarios.Years()
	if len(years) == 0 {
		return nil, fmt.Errorf("app: no scenario cases defined")
	}
	ids := a.scenarios.CaseIDs(years[0])
	s, ok := a.scenarios.Case(years[0], ids[0])
	if !ok {
		return nil, fmt.Errorf("app: missing case %s/%d", ids[0], years[0])
	}
	return s, nil
}

// runGenerators builds the start-year generator table from the first case
// and accumulates period-tagged new builds from every later-period case.
func (a *App) runGenerators(ctx context.Context, st *pipeline.State) error {
	if !a.cfg.Gens {
		ctxlog.FromContext(ctx).Info("Generator clusters disabled; skipping.")
		return nil
	}
	svc := a.provider.Generators()
	logger := ctxlog.FromContext(ctx)

	first, err := a.firstCase()
	if err != nil {
		return err
	}
	st.Case = first

	logger.Info("Building start-year generator set.", "year", first.CaseYear, "case", first.CaseID)
	var gens *table.Table
	if a.cfg.CurrentGens {
		gens, err = svc.AllGenerators(ctx, first)
	} else {
		logger.Info("Existing generators excluded from the start-year set.")
		gens, err = svc.NewGenerators(ctx, first)
	}
	if err != nil {
		return err
	}
	if err := addZoneColumn(gens, st.ZoneMap); err != nil {
		return err
	}
	st.StartYearGens = gens
	logger.Info("Finished first round.", "year", first.CaseYear, "case", first.CaseID, "rows", gens.Len())

	variability, err := svc.Variability(ctx, first, gens)
	if err != nil {
		return err
	}
	// Variability columns pair with generator rows positionally, in served
	// order, so they must be named before the table is reordered.
	if err := nameVariabilityColumns(variability, gens); err != nil {
		return err
	}
	st.Variability = variability

	if a.cfg.SortGens {
		if err := gens.SortBy(postprocess.ColRegion, postprocess.ColResource); err != nil {
			return err
		}
	}

	years := a.scenarios.Years()
	for _, year := range years[1:] {
		for _, caseID := range a.scenarios.CaseIDs(year) {
			s, ok := a.scenarios.Case(year, caseID)
			if !ok {
				return fmt.Errorf("app: missing case %s/%d", caseID, year)
			}
			logger.Info("Starting year scenario.", "year", year, "case", caseID)
			newGens, err := svc.NewGenerators(ctx, s)
			if err != nil {
				return err
			}
			if err := tagOperatingYear(newGens, year); err != nil {
				return err
			}
			if err := addZoneColumn(newGens, st.ZoneMap); err != nil {
				return err
			}
			if st.NewGens == nil {
				st.NewGens = newGens
			} else if err := st.NewGens.Append(newGens); err != nil {
				return fmt.Errorf("app: new-gen tables differ between periods: %w", err)
			}
		}
	}
	return nil
}

// runFuels builds the fuel cost table for the start-year generator set,
// deduplicated by fuel with a 1-based index column.
func (a *App) runFuels(ctx context.Context, st *pipeline.State) error {
	if !a.cfg.Fuel || !a.cfg.Gens {
		ctxlog.FromContext(ctx).Info("Fuel table disabled; skipping.")
		return nil
	}
	first, err := a.firstCase()
	if err != nil {
		return err
	}
	fuels, err := a.provider.Fuel().FuelCostTable(ctx, first, st.StartYearGens)
	if err != nil {
		return err
	}
	fuels, err = dedupeFuels(fuels)
	if err != nil {
		return err
	}
	st.Fuels = fuels
	return a.writer.WriteTable(artifact.Fuels, fuels)
}

// runLoad builds the hourly load curves for the first period/scenario only,
// reduces the time domain together with the resource variability profile,
// and writes both reduced profiles.
func (a *App) runLoad(ctx context.Context, st *pipeline.State) error {
	if !a.cfg.Load {
		ctxlog.FromContext(ctx).Info("Hourly load disabled; skipping.")
		return nil
	}
	first, err := a.firstCase()
	if err != nil {
		return err
	}
	load, err := a.provider.Load().FinalLoadCurves(ctx, first)
	if err != nil {
		return err
	}
	if err := nameLoadColumns(load, st.ZoneMap); err != nil {
		return err
	}

	variability := st.Variability
	if variability == nil {
		// Without generators there is no resource profile to reduce.
		variability = table.New()
	}
	resource, reduced, err := a.provider.Reduction().ReduceTimeDomain(ctx, first, variability, load)
	if err != nil {
		return err
	}
	st.ReducedResourceProfile = resource
	st.ReducedLoadProfile = reduced

	if err := a.writer.WriteTable(artifact.ReducedLoadProfile, reduced); err != nil {
		return err
	}
	return a.writer.WriteTable(artifact.ReducedResourceProfile, resource)
}

// runTransmission aggregates transmission constraints and augments them in
// the fixed order distance, line loss, reinforcement cost, max
// reinforcement. It runs only when more than one region aggregation is
// configured; the artifact exists if and only if it ran.
func (a *App) runTransmission(ctx context.Context, st *pipeline.State) error {
	logger := ctxlog.FromContext(ctx)
	if !a.cfg.Transmission {
		logger.Info("Transmission constraints disabled; skipping.")
		return nil
	}
	if len(a.base.RegionAggregations) <= 1 {
		logger.Info("At most one region aggregation configured; transmission not built.")
		return nil
	}
	first, err := a.firstCase()
	if err != nil {
		return err
	}
	svc := a.provider.Transmission()

	tx, err := svc.AggregateConstraints(ctx, first)
	if err != nil {
		return err
	}
	for _, augment := range []struct {
		name string
		fn   func(context.Context, *settings.Settings, *table.Table) (*table.Table, error)
	}{
		{"line_distance", svc.LineDistance},
		{"line_loss", svc.LineLoss},
		{"reinforcement_cost", svc.ReinforcementCost},
		{"max_reinforcement", svc.MaxReinforcement},
	} {
		tx, err = augment.fn(ctx, first, tx)
		if err != nil {
			return fmt.Errorf("transmission %s: %w", augment.name, err)
		}
	}
	st.Transmission = tx
	return a.writer.WriteTable(artifact.Transmission, tx)
}

// runPostprocess merges the start-year and accumulated new-build tables into
// the multi-period generator table and writes the generator artifacts.
func (a *App) runPostprocess(ctx context.Context, st *pipeline.State) error {
	if !a.cfg.Gens {
		return nil
	}
	if err := postprocess.AddResourceKey(st.StartYearGens); err != nil {
		return err
	}
	if st.NewGens != nil {
		if err := postprocess.AddResourceKey(st.NewGens); err != nil {
			return err
		}
		if err := a.writer.WriteTable(artifact.NewGen, st.NewGens); err != nil {
			return err
		}
	}

	// The fill year pairs with the earliest planning period, not with the
	// first entry of model_year, which may be listed in any order.
	first, err := a.firstCase()
	if err != nil {
		return err
	}
	combined, err := postprocess.MergeMultiPeriod(ctx, st.StartYearGens, st.NewGens, first.FirstPlanningYear)
	if err != nil {
		return err
	}
	combined, err = restrictGeneratorColumns(ctx, combined, a.base.GeneratorColumns)
	if err != nil {
		return err
	}
	st.Combined = combined
	return a.writer.WriteTable(artifact.AllGens, combined)
}

// writeCaseSettings records every resolved case as a YAML file in the run
// folder for auditability.
func (a *App) writeCaseSettings(_ context.Context, _ *pipeline.State) error {
	for _, year := range a.scenarios.Years() {
		for _, caseID := range a.scenarios.CaseIDs(year) {
			s, ok := a.scenarios.Case(year, caseID)
			if !ok {
				return fmt.Errorf("app: missing case %s/%d", caseID, year)
			}
			if err := a.writer.WriteCaseSettings(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// reloadFromCache restores a previous run's artifacts into the in-memory
// shape a fresh computation would produce. Freshness is never re-validated
// against the settings.
func (a *App) reloadFromCache(ctx context.Context, st *pipeline.State) error {
	logger := ctxlog.FromContext(ctx)

	if a.cfg.Gens {
		combined, err := a.writer.ReadTable(artifact.AllGens)
		if err != nil {
			return fmt.Errorf("cache reuse: %w", err)
		}
		st.Combined = combined
		if a.writer.HasTable(artifact.NewGen) {
			newGens, err := a.writer.ReadTable(artifact.NewGen)
			if err != nil {
				return fmt.Errorf("cache reuse: %w", err)
			}
			st.NewGens = newGens
		}
	}
	if a.cfg.Load {
		reduced, err := a.writer.ReadTable(artifact.ReducedLoadProfile)
		if err != nil {
			return fmt.Errorf("cache reuse: %w", err)
		}
		resource, err := a.writer.ReadTable(artifact.ReducedResourceProfile)
		if err != nil {
			return fmt.Errorf("cache reuse: %w", err)
		}
		st.ReducedLoadProfile = reduced
		st.ReducedResourceProfile = resource
	}
	if a.cfg.Transmission && a.writer.HasTable(artifact.Transmission) {
		tx, err := a.writer.ReadTable(artifact.Transmission)
		if err != nil {
			return fmt.Errorf("cache reuse: %w", err)
		}
		st.Transmission = tx
	}
	if a.cfg.Fuel && a.writer.HasTable(artifact.Fuels) {
		fuels, err := a.writer.ReadTable(artifact.Fuels)
		if err != nil {
			return fmt.Errorf("cache reuse: %w", err)
		}
		st.Fuels = fuels
	}
	logger.Info("Artifacts reloaded from cache.")
	return nil
}

// addZoneColumn maps each generator's region to its zone number.
func addZoneColumn(gens *table.Table, zoneMap map[string]string) error {
	return gens.AddComputedColumn("zone", func(row table.Row) (string, error) {
		region, err := row.Get(postprocess.ColRegion)
		if err != nil {
			return "", err
		}
		zone, ok := zoneMap[region]
		if !ok {
			return "", fmt.Errorf("app: region %q has no zone number", region)
		}
		return zone, nil
	})
}

// tagOperatingYear stamps every row of a new-build table with its planning
// period.
func tagOperatingYear(gens *table.Table, year int) error {
	y := strconv.Itoa(year)
	if gens.HasColumn(postprocess.ColOperatingYear) {
		return gens.MapColumn(postprocess.ColOperatingYear, func(string) (string, error) {
			return y, nil
		})
	}
	return gens.AddColumn(postprocess.ColOperatingYear, y)
}

// nameVariabilityColumns renames the variability profile columns to
// region_resource_cluster, one per generator row.
func nameVariabilityColumns(variability, gens *table.Table) error {
	if len(variability.Columns) != gens.Len() {
		return fmt.Errorf("app: variability has %d columns for %d generators",
			len(variability.Columns), gens.Len())
	}
	for i := range variability.Columns {
		row := gens.RowView(i)
		resource, err := row.Get(postprocess.ColResource)
		if err != nil {
			return err
		}
		region, err := row.Get(postprocess.ColRegion)
		if err != nil {
			return err
		}
		cluster, err := row.Get(postprocess.ColCluster)
		if err != nil {
			return err
		}
		variability.Columns[i] = region + "_" + resource + "_" + cluster
	}
	return nil
}

// nameLoadColumns renames each regional load column to Load_MW_z<zone>.
func nameLoadColumns(load *table.Table, zoneMap map[string]string) error {
	for i, region := range load.Columns {
		zone, ok := zoneMap[region]
		if !ok {
			return fmt.Errorf("app: load column %q is not a model region", region)
		}
		load.Columns[i] = "Load_MW_z" + zone
	}
	return nil
}

// dedupeFuels keeps the last record per fuel and appends a 1-based
// fuel_indices column.
func dedupeFuels(fuels *table.Table) (*table.Table, error) {
	idx := fuels.ColumnIndex("fuel")
	if idx < 0 {
		return nil, fmt.Errorf("app: fuel table has no %q column", "fuel")
	}
	last := map[string]int{}
	for i, row := range fuels.Rows {
		last[row[idx]] = i
	}
	out := table.New(append(slices.Clone(fuels.Columns), "fuel_indices")...)
	for i, row := range fuels.Rows {
		if last[row[idx]] != i {
			continue
		}
		cells := append(slices.Clone(row), strconv.Itoa(len(out.Rows)+1))
		if err := out.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// restrictGeneratorColumns narrows the combined table to the configured
// generator columns (those that exist), always keeping the operating year
// and the composite resource key.
func restrictGeneratorColumns(ctx context.Context, combined *table.Table, generatorColumns []string) (*table.Table, error) {
	if len(generatorColumns) == 0 {
		return combined, nil
	}
	keep := []string{}
	seen := map[string]bool{}
	for _, col := range generatorColumns {
		if combined.HasColumn(col) && !seen[col] {
			keep = append(keep, col)
			seen[col] = true
		}
	}
	for _, col := range []string{postprocess.ColOperatingYear, postprocess.ColResourceKey} {
		if combined.HasColumn(col) && !seen[col] {
			keep = append(keep, col)
			seen[col] = true
		}
	}
	if len(keep) == len(combined.Columns) {
		return combined, nil
	}
	ctxlog.FromContext(ctx).Debug("Restricting generator columns.", "kept", len(keep), "of", len(combined.Columns))
	return combined.Select(keep...)
}
