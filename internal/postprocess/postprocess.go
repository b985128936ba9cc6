// Package postprocess joins the start-year generator table with the
// accumulated new-build table into a single multi-period table.
package postprocess

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vk/gridprep/internal/ctxlog"
	"github.com/vk/gridprep/internal/table"
)

// Column names the merge depends on.
const (
	ColResource      = "resource"
	ColRegion        = "region"
	ColCluster       = "cluster"
	ColOperatingYear = "operating_year"
	ColResourceKey   = "Resource_Agg"
)

// AddResourceKey adds the composite key column built from resource, region
// and cluster (cluster rendered as a string). The key identifies a generator
// cluster across periods.
func AddResourceKey(t *table.Table) error {
	return t.AddComputedColumn(ColResourceKey, func(row table.Row) (string, error) {
		resource, err := row.Get(ColResource)
		if err != nil {
			return "", err
		}
		region, err := row.Get(ColRegion)
		if err != nil {
			return "", err
		}
		cluster, err := row.Get(ColCluster)
		if err != nil {
			return "", err
		}
		return resource + "_" + region + "_" + cluster, nil
	})
}

// MergeMultiPeriod concatenates the start-year generator table with the
// accumulated new-generator table, restricted to the start-year column set.
// Columns present only in the new-gen table are dropped; each drop is logged
// at warn level so it never happens silently. Missing or zero operating_year
// values are filled with the first planning period. newGens may be nil when
// the run has a single planning period.
func MergeMultiPeriod(ctx context.Context, startYear, newGens *table.Table, firstPlanningPeriod int) (*table.Table, error) {
	logger := ctxlog.FromContext(ctx)

	combined := startYear.Clone()
	if !combined.HasColumn(ColOperatingYear) {
		if err := combined.AddColumn(ColOperatingYear, ""); err != nil {
			return nil, err
		}
	}

	if newGens != nil && newGens.Len() > 0 {
		for _, col := range newGens.Columns {
			if !combined.HasColumn(col) {
				logger.Warn("Dropping new-generator column absent from the start-year table.", "column", col)
			}
		}
		narrowed := table.New(combined.Columns...)
		for i := 0; i < newGens.Len(); i++ {
			cells := make([]string, len(combined.Columns))
			for c, col := range combined.Columns {
				if newGens.HasColumn(col) {
					v, err := newGens.Get(i, col)
					if err != nil {
						return nil, fmt.Errorf("postprocess: merge: %w", err)
					}
					cells[c] = v
				}
			}
			narrowed.Rows = append(narrowed.Rows, cells)
		}
		if err := combined.Append(narrowed); err != nil {
			return nil, fmt.Errorf("postprocess: merge: %w", err)
		}
	}

	first := strconv.Itoa(firstPlanningPeriod)
	if err := combined.MapColumn(ColOperatingYear, func(cell string) (string, error) {
		if missingYear(cell) {
			return first, nil
		}
		return cell, nil
	}); err != nil {
		return nil, err
	}
	return combined, nil
}

// missingYear reports whether an operating-year cell is unset. Services
// render numbers in varying styles, so zero is compared numerically; "0.0"
// is as missing as "0".
func missingYear(cell string) bool {
	if cell == "" {
		return true
	}
	v, err := strconv.ParseFloat(cell, 64)
	return err == nil && v == 0
}
