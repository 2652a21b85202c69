package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

func trainingFrame(t *testing.T) (*dataset.Frame, types.FeatureSchema) {
	t.Helper()
	f := dataset.New([]string{"score", "city"})
	require.NoError(t, f.Append([]string{"1", "dallas"}))
	require.NoError(t, f.Append([]string{"2", "austin"}))
	require.NoError(t, f.Append([]string{"3", "dallas"}))

	schema := types.FeatureSchema{
		Version: 1,
		Target:  types.ColTarget,
		Features: []types.FeatureSpec{
			{Name: "score", Kind: types.FeatureNumeric},
			{Name: "city", Kind: types.FeatureCategorical},
		},
	}
	return f, schema
}

func TestFitAndTransform(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Width(), "one numeric column plus two indicator columns")

	X, err := p.Transform(f)
	require.NoError(t, err)
	require.Len(t, X, 3)

	// score: mean 2, std sqrt(2/3); the middle row standardizes to 0.
	assert.InDelta(t, 0, X[1][0], 1e-9)
	assert.Less(t, X[0][0], 0.0)
	assert.Greater(t, X[2][0], 0.0)

	// city one-hot in first-seen order: dallas, austin.
	assert.Equal(t, []float64{1, 0}, X[0][1:])
	assert.Equal(t, []float64{0, 1}, X[1][1:])
}

func TestTransformRowUnseenCategory(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	vec, err := p.TransformRow(map[string]string{"score": "2", "city": "houston"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, vec[1:],
		"an unseen category encodes as an all-zero indicator block")
}

func TestTransformRowMissingNumericUsesMedianFill(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	withFill, err := p.TransformRow(map[string]string{"city": "dallas"})
	require.NoError(t, err)
	explicit, err := p.TransformRow(map[string]string{"score": "2", "city": "dallas"})
	require.NoError(t, err)

	assert.InDelta(t, explicit[0], withFill[0], 1e-9,
		"missing numeric feature takes the learned median")
}

func TestTransformRowMissingCategoricalTolerated(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	vec, err := p.TransformRow(map[string]string{"score": "2"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, vec[1:])
}

func TestTransformRowRejectsNonNumericValue(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	_, err = p.TransformRow(map[string]string{"score": "tall", "city": "dallas"})
	assert.Error(t, err)
}

func TestFitRejectsMissingSchemaColumn(t *testing.T) {
	f := dataset.New([]string{"score"})
	require.NoError(t, f.Append([]string{"1"}))

	schema := types.FeatureSchema{Features: []types.FeatureSpec{
		{Name: "city", Kind: types.FeatureCategorical},
	}}
	_, err := Fit(f, schema)
	assert.Error(t, err)
}

func TestReindexAfterDecode(t *testing.T) {
	f, schema := trainingFrame(t)
	p, err := Fit(f, schema)
	require.NoError(t, err)

	// Simulate the state after gob decoding: lookup maps absent.
	decoded := &Preprocessor{Schema: p.Schema, Numeric: p.Numeric, Categories: p.Categories}
	decoded.Reindex()

	vec, err := decoded.TransformRow(map[string]string{"score": "2", "city": "austin"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, vec[1:])
}
