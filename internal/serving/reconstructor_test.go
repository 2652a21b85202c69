package serving

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsignal/incentive-recommender/internal/artifact"
	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/internal/features"
	"github.com/propsignal/incentive-recommender/internal/model"
	"github.com/propsignal/incentive-recommender/internal/pipeline"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

func fittedBundle(t *testing.T) *artifact.Bundle {
	t.Helper()

	f := dataset.New([]string{
		types.ColEngagementScore,
		types.ColOwnerPropertyIntern,
		types.ColGlobalAvgIncentive,
	})
	require.NoError(t, f.Append([]string{"0.1", "O-1_P-1", "200"}))
	require.NoError(t, f.Append([]string{"0.2", "O-1_P-1", "200"}))
	require.NoError(t, f.Append([]string{"0.9", "O-2_P-2", "200"}))
	require.NoError(t, f.Append([]string{"0.8", "O-2_P-2", "200"}))

	schema := types.FeatureSchema{
		Version: 1,
		Target:  types.ColTarget,
		Features: []types.FeatureSpec{
			{Name: types.ColEngagementScore, Kind: types.FeatureNumeric},
			{Name: types.ColOwnerPropertyIntern, Kind: types.FeatureCategorical},
			{Name: types.ColGlobalAvgIncentive, Kind: types.FeatureNumeric},
		},
	}

	pre, err := pipeline.Fit(f, schema)
	require.NoError(t, err)
	X, err := pre.Transform(f)
	require.NoError(t, err)

	forest := model.NewForest(model.ForestConfig{Trees: 10, Seed: 42})
	require.NoError(t, forest.Fit(X, []int{0, 0, 1, 1}, 2))

	return &artifact.Bundle{
		RunID:        artifact.NewRunID(),
		TrainedAt:    time.Now().UTC(),
		Schema:       schema,
		Preprocessor: pre,
		Classifier:   forest,
		Classes:      []string{"credit", "rebate"},
	}
}

func TestReconstructDerivesInteractionKey(t *testing.T) {
	b := fittedBundle(t)
	row, err := Reconstruct(b, map[string]any{
		"owner_id":         "O-1",
		"property_id":      "P-1",
		"engagement_score": 0.5,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "O-1_P-1", row[types.ColOwnerPropertyIntern],
		"the key comes from the shared derivation, not from the payload")
	assert.Equal(t, "0.5", row[types.ColEngagementScore])
}

func TestReconstructKeepsSuppliedInteractionKey(t *testing.T) {
	b := fittedBundle(t)
	row, err := Reconstruct(b, map[string]any{
		"owner_id":                   "O-1",
		"property_id":                "P-1",
		types.ColOwnerPropertyIntern: "O-9_P-9",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "O-9_P-9", row[types.ColOwnerPropertyIntern])
}

func TestReconstructIgnoresExtraFields(t *testing.T) {
	b := fittedBundle(t)
	row, err := Reconstruct(b, map[string]any{
		"engagement_score": 0.5,
		"favorite_color":   "teal",
	}, nil)
	require.NoError(t, err)

	_, ok := row["favorite_color"]
	assert.False(t, ok)
}

func TestReconstructBackfillsLandscape(t *testing.T) {
	b := fittedBundle(t)
	landscape := &features.LandscapeStats{AvgAmount: 250, MaxAmount: 400, MinAmount: 100, ProgramCount: 3}

	row, err := Reconstruct(b, map[string]any{"engagement_score": 0.5}, landscape)
	require.NoError(t, err)
	assert.Equal(t, "250", row[types.ColGlobalAvgIncentive])

	// A payload value outranks the catalog.
	row, err = Reconstruct(b, map[string]any{
		types.ColGlobalAvgIncentive: 180.0,
	}, landscape)
	require.NoError(t, err)
	assert.Equal(t, "180", row[types.ColGlobalAvgIncentive])
}

func TestReconstructRejectsUnsupportedValueType(t *testing.T) {
	b := fittedBundle(t)
	_, err := Reconstruct(b, map[string]any{
		"engagement_score": []any{1, 2},
	}, nil)
	assert.Error(t, err)
}

func TestPredictReturnsTrainedClass(t *testing.T) {
	b := fittedBundle(t)
	resp, err := Predict(b, map[string]any{
		"owner_id":         "O-2",
		"property_id":      "P-2",
		"engagement_score": 0.85,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "rebate", resp.RecommendedIncentiveProgram)

	require.Len(t, resp.ClassProbabilities, 2)
	sum := 0.0
	for _, class := range []string{"credit", "rebate"} {
		p, ok := resp.ClassProbabilities[class]
		require.True(t, ok, "probability keys are training class names")
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPredictToleratesUnknownInteraction(t *testing.T) {
	b := fittedBundle(t)
	resp, err := Predict(b, map[string]any{
		"owner_id":         "O-99",
		"property_id":      "P-99",
		"engagement_score": 0.15,
	}, nil)
	require.NoError(t, err, "an unseen category never fails a request")
	assert.Contains(t, b.Classes, resp.RecommendedIncentiveProgram)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Loaded())
	_, err := s.Get()
	assert.ErrorIs(t, err, types.ErrModelNotLoaded)

	s.Set(fittedBundle(t))
	assert.True(t, s.Loaded())
	b, err := s.Get()
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestStoreLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recommender.gob")
	require.NoError(t, artifact.Save(path, fittedBundle(t)))

	s := NewStore()
	require.NoError(t, s.LoadFile(path))
	assert.True(t, s.Loaded())

	assert.Error(t, NewStore().LoadFile(filepath.Join(t.TempDir(), "absent.gob")))
}
