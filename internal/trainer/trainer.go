// Package trainer orchestrates batch training: cleaning, feature
// engineering, schema freezing, stratified splitting, preprocessing and
// classifier fitting, and holdout evaluation.
package trainer

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/propsignal/incentive-recommender/internal/artifact"
	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/internal/features"
	"github.com/propsignal/incentive-recommender/internal/model"
	"github.com/propsignal/incentive-recommender/internal/pipeline"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Options configure a training run. A fixed Seed makes the split and the
// forest reproducible across retrains on identical inputs.
type Options struct {
	TestSize float64 // holdout fraction (default 0.2)
	Seed     int64
	Trees    int
	Logger   *slog.Logger
}

// Train runs the full batch pipeline over the three raw tables and returns
// the trained bundle plus its evaluation metrics. Nothing is written to
// disk; persistence is the caller's concern, so a failed run never leaves a
// partial artifact.
func Train(incentives, properties, behavior *dataset.Frame, opts Options) (*artifact.Bundle, types.TrainingMetrics, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = 0.2
	}

	cleanIncentives, err := dataset.Clean(incentives, types.RequiredIncentiveColumns, "incentive catalog")
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}
	cleanProperties, err := dataset.Clean(properties, types.RequiredPropertyColumns, "property table")
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}
	cleanBehavior, err := dataset.Clean(behavior, types.RequiredBehaviorColumns, "behavior table")
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}

	joined, err := features.BuildTrainingTable(cleanIncentives, cleanProperties, cleanBehavior, logger)
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}

	schema, err := features.FreezeSchema(joined, types.ColTarget)
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}

	labels := joined.Column(types.ColTarget)
	classes, y := encodeLabels(labels)

	trainIdx, holdoutIdx, err := stratifiedSplit(labels, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}
	trainFrame := joined.Subset(trainIdx)
	holdoutFrame := joined.Subset(holdoutIdx)

	pre, err := pipeline.Fit(trainFrame, schema)
	if err != nil {
		return nil, types.TrainingMetrics{}, err
	}
	XTrain, err := pre.Transform(trainFrame)
	if err != nil {
		return nil, types.TrainingMetrics{}, fmt.Errorf("encoding training partition: %w", err)
	}
	XHoldout, err := pre.Transform(holdoutFrame)
	if err != nil {
		return nil, types.TrainingMetrics{}, fmt.Errorf("encoding holdout partition: %w", err)
	}
	yTrain := pick(y, trainIdx)
	yHoldout := pick(y, holdoutIdx)

	forest := model.NewForest(model.ForestConfig{Trees: opts.Trees, Seed: opts.Seed})
	logger.Info("fitting classifier",
		"trees", forest.Config.Trees,
		"train_rows", len(XTrain),
		"features", pre.Width(),
		"classes", len(classes))
	if err := forest.Fit(XTrain, yTrain, len(classes)); err != nil {
		return nil, types.TrainingMetrics{}, err
	}

	yPred := make([]int, len(XHoldout))
	for i, x := range XHoldout {
		yPred[i] = forest.Predict(x)
	}

	metrics := types.TrainingMetrics{
		RunID:             artifact.NewRunID(),
		TrainedAt:         time.Now().UTC(),
		Accuracy:          model.Accuracy(yHoldout, yPred),
		PerClass:          model.ClassificationReport(yHoldout, yPred, classes),
		ClassDistribution: distribution(labels),
		TrainRows:         len(trainIdx),
		HoldoutRows:       len(holdoutIdx),
	}

	bundle := &artifact.Bundle{
		RunID:        metrics.RunID,
		TrainedAt:    metrics.TrainedAt,
		Schema:       schema,
		Preprocessor: pre,
		Classifier:   forest,
		Classes:      classes,
	}
	return bundle, metrics, nil
}

// encodeLabels maps label strings to class indices. Classes are sorted so
// the artifact's class ordering is stable across retrains.
func encodeLabels(labels []string) ([]string, []int) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y
}

// stratifiedSplit partitions row indices into train and holdout sets,
// preserving per-class proportions. Every class needs at least 2 members so
// both partitions see every class.
func stratifiedSplit(labels []string, testSize float64, seed int64) (train, holdout []int, err error) {
	byClass := make(map[string][]int)
	var order []string
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			order = append(order, l)
		}
		byClass[l] = append(byClass[l], i)
	}
	sort.Strings(order)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range order {
		idx := byClass[class]
		if len(idx) < 2 {
			return nil, nil, &types.InsufficientClassSamplesError{Class: class, Count: len(idx)}
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(testSize*float64(len(idx)) + 0.5)
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		holdout = append(holdout, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(holdout)
	return train, holdout, nil
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func distribution(labels []string) map[string]int {
	out := make(map[string]int)
	for _, l := range labels {
		out[l]++
	}
	return out
}
