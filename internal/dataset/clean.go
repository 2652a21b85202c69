package dataset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Clean applies the cleaning contract to one raw table: required-column
// check, exact-duplicate removal, string normalization, and missing-value
// imputation, in that order. It returns a new frame; the input is not
// modified. Imputation values are computed per table and are not persisted —
// serving-time fill is the preprocessing transform's concern.
func Clean(f *Frame, required []string, tableName string) (*Frame, error) {
	if err := RequireColumns(f, required, tableName); err != nil {
		return nil, err
	}
	out := dropDuplicates(f)
	normalizeStrings(out)
	imputeMissing(out)
	return out, nil
}

// RequireColumns fails with a SchemaError naming every missing column.
func RequireColumns(f *Frame, required []string, tableName string) error {
	var missing []string
	for _, c := range required {
		if !f.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &types.SchemaError{Table: tableName, Missing: missing}
	}
	return nil
}

// dropDuplicates removes rows that are exact duplicates across all columns,
// keeping the first occurrence and preserving row order otherwise.
func dropDuplicates(f *Frame) *Frame {
	out := New(f.cols)
	seen := make(map[string]struct{}, len(f.rows))
	for _, row := range f.rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.rows = append(out.rows, append([]string(nil), row...))
	}
	return out
}

// normalizeStrings trims surrounding whitespace from every cell and folds
// categorical columns to lower case so that semantically identical
// categories collapse to one.
func normalizeStrings(f *Frame) {
	for i := range f.rows {
		for j := range f.rows[i] {
			f.rows[i][j] = strings.TrimSpace(f.rows[i][j])
		}
	}
	for _, col := range f.cols {
		if f.IsNumericColumn(col) {
			continue
		}
		j := f.idx[col]
		for i := range f.rows {
			if IsMissing(f.rows[i][j]) {
				continue
			}
			f.rows[i][j] = strings.ToLower(f.rows[i][j])
		}
	}
}

// imputeMissing fills missing cells: column median for numeric columns,
// column mode for categorical ones. Modes tie-break on first occurrence.
func imputeMissing(f *Frame) {
	for _, col := range f.cols {
		j := f.idx[col]
		if f.IsNumericColumn(col) {
			fill := median(f.NumericColumn(col))
			v := strconv.FormatFloat(fill, 'f', -1, 64)
			for i := range f.rows {
				if IsMissing(f.rows[i][j]) {
					f.rows[i][j] = v
				}
			}
			continue
		}
		fill := mode(f.Column(col))
		for i := range f.rows {
			if IsMissing(f.rows[i][j]) {
				f.rows[i][j] = fill
			}
		}
	}
}

// median returns the middle value of xs, or 0 for an empty slice.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, xs)
	sort.Float64s(cp)
	mid := n / 2
	if n%2 == 0 {
		return (cp[mid-1] + cp[mid]) / 2
	}
	return cp[mid]
}

// mode returns the most frequent non-missing value, or "unknown" if the
// column has no non-missing values.
func mode(col []string) string {
	counts := make(map[string]int, len(col))
	best, bestCount := "unknown", 0
	for _, v := range col {
		if IsMissing(v) {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
