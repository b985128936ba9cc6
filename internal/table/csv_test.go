package table

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "region,capacity_mw\nCA_N,100\nCA_S,250.5\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "capacity_mw"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())

	v, err := tbl.Float(1, "capacity_mw")
	require.NoError(t, err)
	assert.Equal(t, 250.5, v)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "csv is empty")
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("resource", "region", "cluster")
	require.NoError(t, tbl.AppendRow([]string{"ngcc", "CA_N", "1"}))
	require.NoError(t, tbl.AppendRow([]string{"wind, offshore", "CA_S", "2"}))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(tbl, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVFile_CreatesParents(t *testing.T) {
	tbl := New("a")
	require.NoError(t, tbl.AppendRow([]string{"1"}))

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, tbl.WriteCSVFile(path))

	back, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, back.Rows)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
