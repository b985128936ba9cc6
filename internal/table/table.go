// Package table implements the ordered-column tables that flow through the
// preparation pipeline: generator clusters, load curves, resource
// variability profiles and transmission constraints. Cells are stored as
// strings; numeric interpretation happens at the point of use so that no
// structure beyond column names is imposed on service output.
package table

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
)

// Table is a rectangular block of data with named, ordered columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: slices.Clone(t.Columns)}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// AppendRow adds a row. The row must have one cell per column.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table: row has %d cells, want %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, slices.Clone(row))
	return nil
}

// Get returns the cell at row i in the named column.
func (t *Table) Get(i int, column string) (string, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return "", fmt.Errorf("table: no column %q", column)
	}
	if i < 0 || i >= len(t.Rows) {
		return "", fmt.Errorf("table: row %d out of range", i)
	}
	return t.Rows[i][idx], nil
}

// Set writes the cell at row i in the named column.
func (t *Table) Set(i int, column, value string) error {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return fmt.Errorf("table: no column %q", column)
	}
	if i < 0 || i >= len(t.Rows) {
		return fmt.Errorf("table: row %d out of range", i)
	}
	t.Rows[i][idx] = value
	return nil
}

// Float returns the cell at row i in the named column parsed as a float.
// An empty cell parses as zero.
func (t *Table) Float(i int, column string) (float64, error) {
	raw, err := t.Get(i, column)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("table: column %q row %d: %w", column, i, err)
	}
	return v, nil
}

// SetFloat writes a float value, trimming a trailing ".0" style zero
// fraction so integer-valued cells round-trip cleanly.
func (t *Table) SetFloat(i int, column string, v float64) error {
	return t.Set(i, column, FormatFloat(v))
}

// FormatFloat renders a float the way table cells store numbers: shortest
// representation that parses back to the same value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AddColumn appends a new column with the given constant value in every row.
// It is an error if the column already exists.
func (t *Table) AddColumn(name, value string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value)
	}
	return nil
}

// AddComputedColumn appends a new column whose per-row value is produced by
// fn from the existing row.
func (t *Table) AddComputedColumn(name string, fn func(row Row) (string, error)) error {
	if t.HasColumn(name) {
		return fmt.Errorf("table: column %q already exists", name)
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		v, err := fn(Row{table: t, i: i})
		if err != nil {
			return fmt.Errorf("table: compute %q: %w", name, err)
		}
		values[i] = v
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// MapColumn replaces every cell in the named column with fn(cell).
func (t *Table) MapColumn(name string, fn func(string) (string, error)) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("table: no column %q", name)
	}
	for i := range t.Rows {
		v, err := fn(t.Rows[i][idx])
		if err != nil {
			return fmt.Errorf("table: map %q row %d: %w", name, i, err)
		}
		t.Rows[i][idx] = v
	}
	return nil
}

// RenameColumns replaces every column name with fn(name).
func (t *Table) RenameColumns(fn func(string) string) {
	for i, c := range t.Columns {
		t.Columns[i] = fn(c)
	}
}

// Select returns a new table containing only the named columns, in the given
// order. Unknown columns are an error.
func (t *Table) Select(columns ...string) (*Table, error) {
	idxs := make([]int, len(columns))
	for i, c := range columns {
		idx := t.ColumnIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("table: select: no column %q", c)
		}
		idxs[i] = idx
	}
	out := New(columns...)
	for _, row := range t.Rows {
		cells := make([]string, len(idxs))
		for i, idx := range idxs {
			cells[i] = row[idx]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// Append concatenates other onto t. Both tables must have identical column
// sets in identical order; use Select first to restrict a wider table.
func (t *Table) Append(other *Table) error {
	if !slices.Equal(t.Columns, other.Columns) {
		return fmt.Errorf("table: append: column mismatch: %v vs %v", t.Columns, other.Columns)
	}
	for _, row := range other.Rows {
		t.Rows = append(t.Rows, slices.Clone(row))
	}
	return nil
}

// FillEmpty replaces every empty cell in the named column with value.
func (t *Table) FillEmpty(column, value string) error {
	return t.MapColumn(column, func(cell string) (string, error) {
		if cell == "" {
			return value, nil
		}
		return cell, nil
	})
}

// SortBy sorts rows lexically by the named columns, in order. The sort is
// stable so ties keep their original order.
func (t *Table) SortBy(columns ...string) error {
	idxs := make([]int, len(columns))
	for i, c := range columns {
		idx := t.ColumnIndex(c)
		if idx < 0 {
			return fmt.Errorf("table: sort: no column %q", c)
		}
		idxs[i] = idx
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		for _, idx := range idxs {
			if t.Rows[a][idx] != t.Rows[b][idx] {
				return t.Rows[a][idx] < t.Rows[b][idx]
			}
		}
		return false
	})
	return nil
}

// Row is a read-only view of a single table row used by computed columns.
type Row struct {
	table *Table
	i     int
}

// Get returns the cell in the named column of this row.
func (r Row) Get(column string) (string, error) {
	return r.table.Get(r.i, column)
}

// Float returns the cell in the named column parsed as a float.
func (r Row) Float(column string) (float64, error) {
	return r.table.Float(r.i, column)
}

// RowView returns a Row for index i, for callers iterating a table.
func (t *Table) RowView(i int) Row { return Row{table: t, i: i} }
