// Package dataset provides the column-oriented table used by the feature
// pipeline and the cleaning stage applied to each raw input table.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Frame is an ordered table of string-typed cells. Column kind (numeric vs
// categorical) is inferred on demand: a column is numeric iff every
// non-missing cell parses as a float.
type Frame struct {
	cols []string
	idx  map[string]int
	rows [][]string
}

// New creates an empty frame with the given column order.
func New(cols []string) *Frame {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	cp := make([]string, len(cols))
	copy(cp, cols)
	return &Frame{cols: cp, idx: idx}
}

// Append adds a row. The row length must match the column count.
func (f *Frame) Append(row []string) error {
	if len(row) != len(f.cols) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(row), len(f.cols))
	}
	cp := make([]string, len(row))
	copy(cp, row)
	f.rows = append(f.rows, cp)
	return nil
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.idx[name]
	return ok
}

// Value returns the cell at row i in the named column.
func (f *Frame) Value(i int, col string) (string, bool) {
	j, ok := f.idx[col]
	if !ok {
		return "", false
	}
	return f.rows[i][j], true
}

// Set overwrites the cell at row i in the named column.
func (f *Frame) Set(i int, col, v string) {
	if j, ok := f.idx[col]; ok {
		f.rows[i][j] = v
	}
}

// Column returns a copy of the named column's cells.
func (f *Frame) Column(name string) []string {
	j, ok := f.idx[name]
	if !ok {
		return nil
	}
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out
}

// AddColumn appends a new column with per-row values.
func (f *Frame) AddColumn(name string, vals []string) error {
	if f.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(vals) != len(f.rows) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(vals), len(f.rows))
	}
	f.idx[name] = len(f.cols)
	f.cols = append(f.cols, name)
	for i := range f.rows {
		f.rows[i] = append(f.rows[i], vals[i])
	}
	return nil
}

// AddConstColumn appends a new column holding the same value in every row.
func (f *Frame) AddConstColumn(name, val string) error {
	vals := make([]string, len(f.rows))
	for i := range vals {
		vals[i] = val
	}
	return f.AddColumn(name, vals)
}

// Subset returns a new frame holding copies of the rows at the given
// indices, in the given order.
func (f *Frame) Subset(indices []int) *Frame {
	out := New(f.cols)
	out.rows = make([][]string, 0, len(indices))
	for _, i := range indices {
		out.rows = append(out.rows, append([]string(nil), f.rows[i]...))
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.cols)
	out.rows = make([][]string, len(f.rows))
	for i, r := range f.rows {
		cp := make([]string, len(r))
		copy(cp, r)
		out.rows[i] = cp
	}
	return out
}

// IsMissing reports whether a cell counts as a missing value.
func IsMissing(v string) bool {
	return v == "" || v == "NA" || v == "NaN"
}

// IsNumericColumn reports whether every non-missing cell in the column
// parses as a float. Columns with no non-missing cells are not numeric.
func (f *Frame) IsNumericColumn(name string) bool {
	j, ok := f.idx[name]
	if !ok {
		return false
	}
	seen := false
	for _, r := range f.rows {
		v := r[j]
		if IsMissing(v) {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// NumericColumn parses the named column's non-missing cells as floats.
func (f *Frame) NumericColumn(name string) []float64 {
	var out []float64
	j, ok := f.idx[name]
	if !ok {
		return out
	}
	for _, r := range f.rows {
		if IsMissing(r[j]) {
			continue
		}
		if v, err := strconv.ParseFloat(r[j], 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// ReadCSV loads a frame from a headered CSV file.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file, expected a header row", path)
	}

	f := New(records[0])
	for _, row := range records[1:] {
		if err := f.Append(row); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f, nil
}
