package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostTable(t *testing.T) {
	costs := []TechnologyCost{
		{
			Technology: "NaturalGas", TechDetail: "CCAvgCF", CostCase: "Mid",
			BasisYear: 2030, FixedOMMW: 10500.5, VariableOMMWh: 2.25, CapexMW: 950000,
		},
		{
			Technology: "UtilityPV", TechDetail: "LosAngeles", CostCase: "Low",
			BasisYear: 2030, FixedOMMW: 8000, VariableOMMWh: 0, CapexMW: 820000,
		},
	}

	tbl := CostTable(costs)

	assert.Equal(t, []string{
		"technology", "tech_detail", "cost_case", "basis_year",
		"o_m_fixed_mw", "o_m_variable_mwh", "capex_mw",
	}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"NaturalGas", "CCAvgCF", "Mid", "2030", "10500.5", "2.25", "950000"}, tbl.Rows[0])
	assert.Equal(t, []string{"UtilityPV", "LosAngeles", "Low", "2030", "8000", "0", "820000"}, tbl.Rows[1])
}

func TestCostTable_Empty(t *testing.T) {
	tbl := CostTable(nil)
	assert.Zero(t, tbl.Len())
	assert.Len(t, tbl.Columns, 7)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(t.Context(), "")
	assert.ErrorContains(t, err, "empty DSN")
}
