// Package pipeline implements the fitted preprocessing transform composed
// with the classifier: numeric columns are standardized to zero mean and
// unit variance with learned median fill, categorical columns are expanded
// into independent indicator features with unseen-category tolerance.
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// NumericStats are the learned parameters for one numeric feature column.
// Fill is the training-set median, used when a value is missing at serving
// time.
type NumericStats struct {
	Mean float64
	Std  float64
	Fill float64
}

// Preprocessor is the fitted transform. Fields are exported for gob
// encoding inside the trained artifact; the struct is immutable after Fit.
type Preprocessor struct {
	Schema     types.FeatureSchema
	Numeric    map[string]NumericStats
	Categories map[string][]string // per categorical column, in first-seen order

	catIndex map[string]map[string]int
}

// Fit learns standardization parameters and category vocabularies from the
// joined training table restricted to the frozen schema's columns.
func Fit(frame *dataset.Frame, schema types.FeatureSchema) (*Preprocessor, error) {
	p := &Preprocessor{
		Schema:     schema,
		Numeric:    make(map[string]NumericStats),
		Categories: make(map[string][]string),
	}

	for _, f := range schema.Features {
		if !frame.HasColumn(f.Name) {
			return nil, fmt.Errorf("training table has no column %q named in schema", f.Name)
		}
		switch f.Kind {
		case types.FeatureNumeric:
			vals := frame.NumericColumn(f.Name)
			if len(vals) == 0 {
				return nil, fmt.Errorf("numeric column %q has no usable values", f.Name)
			}
			p.Numeric[f.Name] = NumericStats{
				Mean: mean(vals),
				Std:  std(vals),
				Fill: median(vals),
			}
		case types.FeatureCategorical:
			seen := make(map[string]struct{})
			var cats []string
			for _, v := range frame.Column(f.Name) {
				if dataset.IsMissing(v) {
					continue
				}
				if _, ok := seen[v]; !ok {
					seen[v] = struct{}{}
					cats = append(cats, v)
				}
			}
			p.Categories[f.Name] = cats
		default:
			return nil, fmt.Errorf("schema column %q has unknown kind %q", f.Name, f.Kind)
		}
	}
	p.Reindex()
	return p, nil
}

// Reindex rebuilds the category lookup maps. It must be called after gob
// decoding and before any concurrent use; TransformRow only reads the maps.
func (p *Preprocessor) Reindex() {
	p.catIndex = make(map[string]map[string]int, len(p.Categories))
	for c, cats := range p.Categories {
		m := make(map[string]int, len(cats))
		for i, cat := range cats {
			m[cat] = i
		}
		p.catIndex[c] = m
	}
}

// Width returns the length of the encoded feature vector.
func (p *Preprocessor) Width() int {
	w := 0
	for _, f := range p.Schema.Features {
		if f.Kind == types.FeatureNumeric {
			w++
		} else {
			w += len(p.Categories[f.Name])
		}
	}
	return w
}

// Transform encodes every row of the frame in schema order.
func (p *Preprocessor) Transform(frame *dataset.Frame) ([][]float64, error) {
	out := make([][]float64, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		row := make(map[string]string, len(p.Schema.Features))
		for _, f := range p.Schema.Features {
			if v, ok := frame.Value(i, f.Name); ok {
				row[f.Name] = v
			}
		}
		vec, err := p.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// TransformRow encodes a single row given as a feature-name to cell map.
// Missing numeric values take the learned median fill; missing or unseen
// categorical values encode as an all-zero indicator block rather than
// failing.
func (p *Preprocessor) TransformRow(row map[string]string) ([]float64, error) {
	vec := make([]float64, 0, p.Width())
	for _, f := range p.Schema.Features {
		v, present := row[f.Name]
		if f.Kind == types.FeatureNumeric {
			stats, ok := p.Numeric[f.Name]
			if !ok {
				return nil, &types.MissingFeatureError{Feature: f.Name}
			}
			x := stats.Fill
			if present && !dataset.IsMissing(v) {
				parsed, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("feature %q: %q is not numeric", f.Name, v)
				}
				x = parsed
			}
			if stats.Std > 0 {
				vec = append(vec, (x-stats.Mean)/stats.Std)
			} else {
				vec = append(vec, 0)
			}
			continue
		}

		block := make([]float64, len(p.Categories[f.Name]))
		if present && !dataset.IsMissing(v) {
			if idx, ok := p.categoryIndex(f.Name, v); ok {
				block[idx] = 1
			}
		}
		vec = append(vec, block...)
	}
	return vec, nil
}

// categoryIndex resolves a category to its indicator position. Unseen
// categories resolve to nothing, leaving the block all zero.
func (p *Preprocessor) categoryIndex(col, v string) (int, bool) {
	idx, ok := p.catIndex[col][v]
	return idx, ok
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func std(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, v := range xs {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func median(xs []float64) float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 0 {
		return (cp[mid-1] + cp[mid]) / 2
	}
	return cp[mid]
}
