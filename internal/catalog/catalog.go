// Package catalog reads reference data from a PUDL-style Postgres database:
// the model region registry used for settings validation and ATB technology
// cost records. The catalog is optional; runs without a configured DSN skip
// catalog-backed validation.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	// Postgres driver, registered for database/sql.
	_ "github.com/lib/pq"

	"github.com/vk/gridprep/internal/settings"
	"github.com/vk/gridprep/internal/table"
)

// EnvDSN is the environment variable that carries the catalog connection
// string, optionally loaded from a .env file by the CLI.
const EnvDSN = "GRIDPREP_PUDL_DSN"

// Catalog wraps a live database handle.
type Catalog struct {
	db *sql.DB
}

// Open connects to the catalog database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	if dsn == "" {
		return nil, fmt.Errorf("catalog: empty DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// Regions returns every region id in the region registry table.
func (c *Catalog) Regions(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT region_id FROM regions_entity ORDER BY region_id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query regions: %w", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("catalog: scan region: %w", err)
		}
		regions = append(regions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: regions: %w", err)
	}
	return regions, nil
}

// TechnologyCost is one ATB cost record for a technology in a basis year.
// USD columns are expressed in the dollar year requested by the filter.
type TechnologyCost struct {
	Technology    string
	TechDetail    string
	CostCase      string
	BasisYear     int
	FixedOMMW     float64
	VariableOMMWh float64
	CapexMW       float64
}

// TechnologyCosts returns cost records filtered by the capital recovery
// period and financial case from the settings, with USD columns converted
// from the ATB dollar year to the target dollar year.
func (c *Catalog) TechnologyCosts(ctx context.Context, s *settings.Settings) ([]TechnologyCost, error) {
	const q = `
		SELECT technology, tech_detail, cost_case, basis_year,
		       o_m_fixed_mw, o_m_variable_mwh, capex
		FROM technology_costs_atb
		WHERE cap_recovery_years = $1 AND financial_case = $2
		ORDER BY technology, tech_detail, cost_case, basis_year`

	rows, err := c.db.QueryContext(ctx, q, s.ATBCapRecoveryYears, s.ATBFinancialCase)
	if err != nil {
		return nil, fmt.Errorf("catalog: query technology costs: %w", err)
	}
	defer rows.Close()

	var costs []TechnologyCost
	for rows.Next() {
		var tc TechnologyCost
		if err := rows.Scan(
			&tc.Technology, &tc.TechDetail, &tc.CostCase, &tc.BasisYear,
			&tc.FixedOMMW, &tc.VariableOMMWh, &tc.CapexMW,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan technology cost: %w", err)
		}
		tc.FixedOMMW = AdjustPrice(tc.FixedOMMW, s.ATBUSDYear, s.TargetUSDYear)
		tc.VariableOMMWh = AdjustPrice(tc.VariableOMMWh, s.ATBUSDYear, s.TargetUSDYear)
		tc.CapexMW = AdjustPrice(tc.CapexMW, s.ATBUSDYear, s.TargetUSDYear)
		costs = append(costs, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: technology costs: %w", err)
	}
	return costs, nil
}

// CostTable renders cost records as a table so the artifact writer can
// record them alongside the run's other outputs.
func CostTable(costs []TechnologyCost) *table.Table {
	t := table.New(
		"technology", "tech_detail", "cost_case", "basis_year",
		"o_m_fixed_mw", "o_m_variable_mwh", "capex_mw",
	)
	for _, c := range costs {
		t.Rows = append(t.Rows, []string{
			c.Technology, c.TechDetail, c.CostCase, strconv.Itoa(c.BasisYear),
			table.FormatFloat(c.FixedOMMW),
			table.FormatFloat(c.VariableOMMWh),
			table.FormatFloat(c.CapexMW),
		})
	}
	return t
}
