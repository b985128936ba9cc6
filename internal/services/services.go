// Package services declares the interfaces through which the pipeline talks
// to the external power-system data library. The clustering, load-curve and
// time-domain-reduction algorithms live behind these interfaces; this repo
// only orchestrates them.
package services

import (
	"context"

	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// GeneratorService produces clustered generator tables.
type GeneratorService interface {
	// AllGenerators returns the full existing-plus-new generator set for the
	// first planning period. It is called exactly once per run.
	AllGenerators(ctx context.Context, s *settings.Settings) (*table.Table, error)

	// NewGenerators returns the new-build clusters for a later planning
	// period. Rows are not yet tagged with the period.
	NewGenerators(ctx context.Context, s *settings.Settings) (*table.Table, error)

	// Variability returns the hourly resource variability profile for the
	// given generator table, one column per generator.
	Variability(ctx context.Context, s *settings.Settings, gens *table.Table) (*table.Table, error)
}

// LoadService builds hourly load curves.
type LoadService interface {
	FinalLoadCurves(ctx context.Context, s *settings.Settings) (*table.Table, error)
}

// ReductionService reduces the hourly time domain of the variability and
// load tables to representative periods.
type ReductionService interface {
	ReduceTimeDomain(ctx context.Context, s *settings.Settings, variability, load *table.Table) (resource, loadProfile *table.Table, err error)
}

// TransmissionService aggregates transmission constraints between model
// regions and augments them. The four augmentation calls are applied by the
// driver in a fixed order: LineDistance, LineLoss, ReinforcementCost,
// MaxReinforcement.
type TransmissionService interface {
	AggregateConstraints(ctx context.Context, s *settings.Settings) (*table.Table, error)
	LineDistance(ctx context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error)
	LineLoss(ctx context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error)
	ReinforcementCost(ctx context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error)
	MaxReinforcement(ctx context.Context, s *settings.Settings, tx *table.Table) (*table.Table, error)
}

// FuelService builds the fuel cost table for a generator set.
type FuelService interface {
	FuelCostTable(ctx context.Context, s *settings.Settings, gens *table.Table) (*table.Table, error)
}

// Provider bundles every external service the pipeline needs.
type Provider interface {
	Generators() GeneratorService
	Load() LoadService
	Reduction() ReductionService
	Transmission() TransmissionService
	Fuel() FuelService
}
