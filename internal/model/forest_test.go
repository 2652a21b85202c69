package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData returns two well-separated clusters with a little noise.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, 2*n)
	y := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.Float64() * 0.4, rng.Float64() * 0.4})
		y = append(y, 0)
		X = append(X, []float64{1 + rng.Float64()*0.4, 1 + rng.Float64()*0.4})
		y = append(y, 1)
	}
	return X, y
}

func TestForestFitPredict(t *testing.T) {
	X, y := separableData(30, 1)
	f := NewForest(ForestConfig{Trees: 25, Seed: 42})
	require.NoError(t, f.Fit(X, y, 2))

	assert.Equal(t, 0, f.Predict([]float64{0.1, 0.1}))
	assert.Equal(t, 1, f.Predict([]float64{1.2, 1.2}))
}

func TestForestDeterministicForSeed(t *testing.T) {
	X, y := separableData(30, 1)
	probe := []float64{0.6, 0.5}

	a := NewForest(ForestConfig{Trees: 25, Seed: 42})
	require.NoError(t, a.Fit(X, y, 2))
	b := NewForest(ForestConfig{Trees: 25, Seed: 42})
	require.NoError(t, b.Fit(X, y, 2))

	assert.Equal(t, a.PredictProba(probe), b.PredictProba(probe),
		"same seed and data must reproduce the same forest")
}

func TestForestPredictProbaSumsToOne(t *testing.T) {
	X, y := separableData(20, 3)
	f := NewForest(ForestConfig{Trees: 25, Seed: 7})
	require.NoError(t, f.Fit(X, y, 2))

	probs := f.PredictProba([]float64{0.5, 0.5})
	require.Len(t, probs, 2)
	sum := probs[0] + probs[1]
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestForestFitValidation(t *testing.T) {
	f := NewForest(ForestConfig{Trees: 5, Seed: 1})

	assert.Error(t, f.Fit(nil, nil, 2), "empty training set")
	assert.Error(t, f.Fit([][]float64{{1}}, []int{0, 1}, 2), "label count mismatch")
	assert.Error(t, f.Fit([][]float64{{1}, {2}}, []int{0, 0}, 1), "single class")
}

func TestForestDefaults(t *testing.T) {
	f := NewForest(ForestConfig{})
	assert.Equal(t, 300, f.Config.Trees)
	assert.Equal(t, 2, f.Config.MinSamplesSplit)
}

func TestAccuracy(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 0, 0}), 1e-9)
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestClassificationReport(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 1, 1, 1}
	report := ClassificationReport(yTrue, yPred, []string{"rebate", "credit"})

	rebate := report["rebate"]
	assert.InDelta(t, 1.0, rebate.Precision, 1e-9)
	assert.InDelta(t, 0.5, rebate.Recall, 1e-9)
	assert.Equal(t, 2, rebate.Support)

	credit := report["credit"]
	assert.InDelta(t, 2.0/3.0, credit.Precision, 1e-9)
	assert.InDelta(t, 1.0, credit.Recall, 1e-9)
	assert.InDelta(t, 0.8, credit.F1, 1e-9)
}
