// Package pipeline runs a linear chain of named stages over a shared run
// state. Stages execute strictly in order, synchronously, and the first
// error aborts the run; there is no retry, timeout or parallelism.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk/gridprep/internal/ctxlog"
	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// State is the accumulator threaded through every stage of a run. It replaces
// the mutable notebook globals with one explicit value owned by the driver.
type State struct {
	// Case is the resolved settings for the case currently being processed.
	Case *settings.Settings

	// ZoneMap numbers the sorted model regions; derived once per run.
	ZoneMap map[string]string

	// StartYearGens is the existing-plus-new generator table from the first
	// period. Exactly one is built per run.
	StartYearGens *table.Table

	// NewGens accumulates new-build rows from every later period, each
	// tagged with its operating_year.
	NewGens *table.Table

	// Variability is the hourly resource profile for the start-year
	// generator set.
	Variability *table.Table

	ReducedLoadProfile     *table.Table
	ReducedResourceProfile *table.Table
	Transmission           *table.Table
	Fuels                  *table.Table

	// Combined is the post-processed multi-period generator table.
	Combined *table.Table
}

// Stage is one synchronous step of a pipeline run.
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *State) error
}

// Pipeline executes stages in order over a shared state.
type Pipeline struct {
	Name   string
	Stages []Stage
}

// Run executes every stage in order. Each run gets a fresh UUID that is
// attached to all of its log lines.
func (p *Pipeline) Run(ctx context.Context, st *State) error {
	runID := uuid.New().String()
	logger := ctxlog.FromContext(ctx).With("pipeline", p.Name, "run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	start := time.Now()
	logger.Info("Pipeline starting.", "stages", len(p.Stages))

	for i, stage := range p.Stages {
		stageStart := time.Now()
		logger.Debug("Stage starting.", "stage", stage.Name, "index", i)
		if err := stage.Run(ctx, st); err != nil {
			logger.Error("Stage failed.", "stage", stage.Name, "index", i, "error", err)
			return fmt.Errorf("pipeline %s: stage %s: %w", p.Name, stage.Name, err)
		}
		logger.Debug("Stage finished.", "stage", stage.Name, "index", i,
			"duration", time.Since(stageStart).Round(time.Millisecond))
	}

	logger.Info("Pipeline finished.", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
