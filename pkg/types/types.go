// Package types defines the public domain types for the incentive
// recommendation pipeline: feature schemas, training metrics, and the
// serving request/response contract.
package types

import "time"

// Column names required in the raw input tables.
const (
	ColIncentiveProgram = "incentive_program"
	ColIncentiveAmount  = "incentive_amount"
	ColPropertyID       = "property_id"
	ColOwnerID          = "owner_id"
	ColEngagementScore  = "engagement_score"
	ColTarget           = "ideal_incentive_program"
)

// Derived feature columns added by the join and aggregation stage.
const (
	ColGlobalAvgIncentive  = "global_avg_incentive_amount"
	ColGlobalMaxIncentive  = "global_max_incentive_amount"
	ColGlobalMinIncentive  = "global_min_incentive_amount"
	ColProgramCount        = "available_program_count"
	ColOwnerAvgEngagement  = "owner_avg_engagement"
	ColOwnerMaxEngagement  = "owner_max_engagement"
	ColOwnerInteractions   = "owner_interaction_count"
	ColOwnerPropertyIntern = "owner_property_interaction"
)

// RequiredIncentiveColumns lists the columns the incentive catalog must carry.
var RequiredIncentiveColumns = []string{ColIncentiveProgram, ColIncentiveAmount}

// RequiredPropertyColumns lists the columns the property table must carry.
var RequiredPropertyColumns = []string{ColPropertyID, ColOwnerID}

// RequiredBehaviorColumns lists the columns the behavior table must carry.
var RequiredBehaviorColumns = []string{ColOwnerID, ColPropertyID, ColEngagementScore, ColTarget}

// FeatureKind classifies a feature column as numeric or categorical.
type FeatureKind string

const (
	FeatureNumeric     FeatureKind = "numeric"
	FeatureCategorical FeatureKind = "categorical"
)

// FeatureSpec is a single named, typed feature column.
type FeatureSpec struct {
	Name string      `json:"name" yaml:"name"`
	Kind FeatureKind `json:"kind" yaml:"kind"`
}

// FeatureSchema is the ordered, typed list of feature columns frozen after
// training-set construction. It is written once by the schema freezer and
// read by both the trainer's preprocessing and the serving reconstructor;
// it is never re-inferred at serving time.
type FeatureSchema struct {
	Version  int           `json:"version" yaml:"version"`
	Target   string        `json:"target" yaml:"target"`
	Features []FeatureSpec `json:"features" yaml:"features"`
}

// Names returns the feature column names in schema order.
func (s FeatureSchema) Names() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Kind returns the kind of the named feature and whether it is in the schema.
func (s FeatureSchema) Kind(name string) (FeatureKind, bool) {
	for _, f := range s.Features {
		if f.Name == name {
			return f.Kind, true
		}
	}
	return "", false
}

// Has reports whether the named column is part of the schema.
func (s FeatureSchema) Has(name string) bool {
	_, ok := s.Kind(name)
	return ok
}

// ClassMetrics holds per-class evaluation results on the holdout partition.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// TrainingMetrics is the structured metrics record emitted by the trainer.
type TrainingMetrics struct {
	RunID             string                  `json:"run_id"`
	TrainedAt         time.Time               `json:"trained_at"`
	Accuracy          float64                 `json:"accuracy"`
	PerClass          map[string]ClassMetrics `json:"per_class"`
	ClassDistribution map[string]int          `json:"class_distribution"`
	TrainRows         int                     `json:"train_rows"`
	HoldoutRows       int                     `json:"holdout_rows"`
}

// RecommendRequest is the body of POST /recommend. Keys are feature names
// (any subset of the frozen schema, plus optionally owner_id/property_id for
// interaction-key derivation); values are numeric or string.
type RecommendRequest struct {
	Features map[string]any `json:"features"`
}

// RecommendResponse is the serving response. ClassProbabilities is omitted,
// not null, when the underlying classifier does not support probabilities.
type RecommendResponse struct {
	RecommendedIncentiveProgram string             `json:"recommended_incentive_program"`
	ClassProbabilities          map[string]float64 `json:"class_probabilities,omitempty"`
}

// HealthResponse reports service-up status and artifact load state.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}
