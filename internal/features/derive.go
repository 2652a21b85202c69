// Package features implements the join and aggregation stage and the
// feature schema freezer. The derivations here are the training/serving
// parity surface: anything computed in this package at training time must
// be reproducible from a single serving payload, so shared derivations
// (notably the interaction key) live in exactly one function.
package features

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

const interactionSeparator = "_"

// InteractionKey derives the owner-property interaction feature. It is the
// single implementation invoked by both the batch trainer and the serving
// reconstructor; duplicating it would be the most leakage-prone form of
// training/serving drift.
func InteractionKey(ownerID, propertyID string) string {
	return ownerID + interactionSeparator + propertyID
}

// LandscapeStats are statistics computed once over the entire incentive
// catalog and broadcast identically onto every joined row.
type LandscapeStats struct {
	AvgAmount    float64 `json:"avg_amount"`
	MaxAmount    float64 `json:"max_amount"`
	MinAmount    float64 `json:"min_amount"`
	ProgramCount int     `json:"program_count"`
}

// ComputeLandscape derives the incentive-landscape statistics from a cleaned
// incentive catalog.
func ComputeLandscape(incentives *dataset.Frame) (LandscapeStats, error) {
	amounts := incentives.NumericColumn(types.ColIncentiveAmount)
	if len(amounts) == 0 {
		return LandscapeStats{}, fmt.Errorf("incentive catalog has no usable %s values", types.ColIncentiveAmount)
	}

	sum, max, min := 0.0, amounts[0], amounts[0]
	for _, v := range amounts {
		sum += v
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}

	programs := make(map[string]struct{})
	for _, p := range incentives.Column(types.ColIncentiveProgram) {
		if !dataset.IsMissing(p) {
			programs[p] = struct{}{}
		}
	}

	return LandscapeStats{
		AvgAmount:    sum / float64(len(amounts)),
		MaxAmount:    max,
		MinAmount:    min,
		ProgramCount: len(programs),
	}, nil
}

// OwnerAggregate holds per-owner behavioral history aggregates.
type OwnerAggregate struct {
	AvgEngagement    float64
	MaxEngagement    float64
	InteractionCount int
}

// OwnerAggregates computes engagement aggregates per owner_id over the
// behavior table: average engagement, maximum engagement, and the number
// of behavior events.
func OwnerAggregates(behavior *dataset.Frame) map[string]OwnerAggregate {
	type acc struct {
		sum, max float64
		n        int
	}
	accs := make(map[string]acc)
	for i := 0; i < behavior.Len(); i++ {
		owner, _ := behavior.Value(i, types.ColOwnerID)
		raw, _ := behavior.Value(i, types.ColEngagementScore)
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		a, seen := accs[owner]
		if !seen || score > a.max {
			a.max = score
		}
		a.sum += score
		a.n++
		accs[owner] = a
	}

	out := make(map[string]OwnerAggregate, len(accs))
	for owner, a := range accs {
		out[owner] = OwnerAggregate{
			AvgEngagement:    a.sum / float64(a.n),
			MaxEngagement:    a.max,
			InteractionCount: a.n,
		}
	}
	return out
}

// BuildTrainingTable merges the cleaned tables into the joined training
// table: one row per behavior event, carrying the matching property
// attributes, the broadcast landscape statistics, the owner aggregates, and
// the derived interaction key. Behavior rows without a matching property are
// dropped with a warning; an empty result is fatal.
func BuildTrainingTable(incentives, properties, behavior *dataset.Frame, logger *slog.Logger) (*dataset.Frame, error) {
	if logger == nil {
		logger = slog.Default()
	}

	landscape, err := ComputeLandscape(incentives)
	if err != nil {
		return nil, err
	}
	owners := OwnerAggregates(behavior)

	// Index properties by (owner_id, property_id). Extra property columns
	// follow the behavior columns in the joined row.
	var extraPropCols []string
	for _, c := range properties.Columns() {
		if c != types.ColOwnerID && c != types.ColPropertyID {
			extraPropCols = append(extraPropCols, c)
		}
	}
	propIndex := make(map[string][]string, properties.Len())
	for i := 0; i < properties.Len(); i++ {
		owner, _ := properties.Value(i, types.ColOwnerID)
		prop, _ := properties.Value(i, types.ColPropertyID)
		extras := make([]string, len(extraPropCols))
		for j, c := range extraPropCols {
			extras[j], _ = properties.Value(i, c)
		}
		propIndex[InteractionKey(owner, prop)] = extras
	}

	joined := dataset.New(append(behavior.Columns(), extraPropCols...))
	dropped := 0
	for i := 0; i < behavior.Len(); i++ {
		owner, _ := behavior.Value(i, types.ColOwnerID)
		prop, _ := behavior.Value(i, types.ColPropertyID)
		extras, ok := propIndex[InteractionKey(owner, prop)]
		if !ok {
			dropped++
			continue
		}
		row := make([]string, 0, len(behavior.Columns())+len(extras))
		for _, c := range behavior.Columns() {
			v, _ := behavior.Value(i, c)
			row = append(row, v)
		}
		row = append(row, extras...)
		if err := joined.Append(row); err != nil {
			return nil, err
		}
	}
	if dropped > 0 {
		logger.Warn("dropped behavior rows without matching property",
			"dropped", dropped, "kept", joined.Len())
	}
	if joined.Len() == 0 {
		return nil, types.ErrEmptyJoin
	}

	// Landscape features: identical on every row. Column order is part of
	// the frozen schema, so these are added in a fixed order.
	landscapeCols := []struct{ name, val string }{
		{types.ColGlobalAvgIncentive, strconv.FormatFloat(landscape.AvgAmount, 'f', -1, 64)},
		{types.ColGlobalMaxIncentive, strconv.FormatFloat(landscape.MaxAmount, 'f', -1, 64)},
		{types.ColGlobalMinIncentive, strconv.FormatFloat(landscape.MinAmount, 'f', -1, 64)},
		{types.ColProgramCount, strconv.Itoa(landscape.ProgramCount)},
	}
	for _, c := range landscapeCols {
		if err := joined.AddConstColumn(c.name, c.val); err != nil {
			return nil, err
		}
	}

	// Owner aggregates, joined back per row.
	avg := make([]string, joined.Len())
	max := make([]string, joined.Len())
	count := make([]string, joined.Len())
	interaction := make([]string, joined.Len())
	for i := 0; i < joined.Len(); i++ {
		owner, _ := joined.Value(i, types.ColOwnerID)
		prop, _ := joined.Value(i, types.ColPropertyID)
		agg := owners[owner]
		avg[i] = strconv.FormatFloat(agg.AvgEngagement, 'f', -1, 64)
		max[i] = strconv.FormatFloat(agg.MaxEngagement, 'f', -1, 64)
		count[i] = strconv.Itoa(agg.InteractionCount)
		interaction[i] = InteractionKey(owner, prop)
	}
	if err := joined.AddColumn(types.ColOwnerAvgEngagement, avg); err != nil {
		return nil, err
	}
	if err := joined.AddColumn(types.ColOwnerMaxEngagement, max); err != nil {
		return nil, err
	}
	if err := joined.AddColumn(types.ColOwnerInteractions, count); err != nil {
		return nil, err
	}
	if err := joined.AddColumn(types.ColOwnerPropertyIntern, interaction); err != nil {
		return nil, err
	}

	return joined, nil
}
