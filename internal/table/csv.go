package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadCSV decodes a table from r. The first record is the header; every
// following record must have the same width.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table: csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("table: read header: %w", err)
	}
	t := New(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: read row: %w", err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// ReadCSVFile decodes a table from the file at path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	return t, nil
}

// WriteCSV encodes the table to w, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("table: write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("table: write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile encodes the table to the file at path, creating parent
// directories as needed. The write is not atomic; a failed run can leave a
// partial file behind.
func (t *Table) WriteCSVFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("table: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("table: create %s: %w", path, err)
	}
	defer f.Close()
	if err := t.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}
