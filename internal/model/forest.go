// Package model provides the classifier behind the recommendation pipeline.
// The trainer and server depend only on the Classifier interfaces, so the
// forest is interchangeable with any fit/predict implementation.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Classifier is a supervised classifier over dense float vectors. Labels are
// class indices 0..numClasses-1; mapping indices to class names is the
// caller's concern.
type Classifier interface {
	Fit(X [][]float64, y []int, numClasses int) error
	Predict(x []float64) int
}

// ProbabilityClassifier is a Classifier that can expose a per-class
// probability distribution. Callers should type-assert and omit probability
// output when the assertion fails.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(x []float64) []float64
}

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	Trees           int   // number of trees (default 300)
	MaxDepth        int   // 0 means unlimited
	MinSamplesSplit int   // minimum samples to attempt a split (default 2)
	MaxFeatures     int   // features sampled per split; 0 means sqrt(p)
	Seed            int64 // same seed + same data => same forest
}

// Forest is a bootstrap-aggregated ensemble of CART trees with majority
// voting and averaged leaf distributions for probabilities. Fields are
// exported for gob encoding inside the trained artifact.
type Forest struct {
	Config     ForestConfig
	NumClasses int
	Trees      []*Tree
}

var _ ProbabilityClassifier = (*Forest)(nil)

// NewForest creates a forest, applying defaults for unset config fields.
func NewForest(cfg ForestConfig) *Forest {
	if cfg.Trees <= 0 {
		cfg.Trees = 300
	}
	if cfg.MinSamplesSplit <= 0 {
		cfg.MinSamplesSplit = 2
	}
	return &Forest{Config: cfg}
}

// Fit trains the forest. Trees are fitted concurrently; each tree draws its
// bootstrap sample and split randomness from its own generator seeded from
// Config.Seed, so the result is deterministic regardless of scheduling.
func (f *Forest) Fit(X [][]float64, y []int, numClasses int) error {
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(y) != len(X) {
		return fmt.Errorf("forest: %d rows but %d labels", len(X), len(y))
	}
	if numClasses < 2 {
		return fmt.Errorf("forest: need at least 2 classes, got %d", numClasses)
	}

	f.NumClasses = numClasses
	f.Trees = make([]*Tree, f.Config.Trees)

	maxFeatures := f.Config.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(len(X[0]))))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	var g errgroup.Group
	for i := range f.Trees {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Config.Seed + int64(i)))
			n := len(X)
			idx := make([]int, n)
			for j := range idx {
				idx[j] = rng.Intn(n)
			}
			t := &Tree{
				MaxDepth:        f.Config.MaxDepth,
				MinSamplesSplit: f.Config.MinSamplesSplit,
				MaxFeatures:     maxFeatures,
			}
			if err := t.fit(X, y, idx, numClasses, rng); err != nil {
				return err
			}
			f.Trees[i] = t
			return nil
		})
	}
	return g.Wait()
}

// PredictProba returns the class distribution for one encoded row, averaged
// over all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	if len(f.Trees) == 0 {
		return probs
	}
	for _, t := range f.Trees {
		leaf := t.leafFor(x)
		for c, p := range leaf.Probas {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the class index with the highest averaged probability.
func (f *Forest) Predict(x []float64) int {
	return argmax(f.PredictProba(x))
}

// Tree is a CART classification tree over numeric features. After the
// preprocessing transform every feature is numeric (standardized values and
// 0/1 indicators), so only threshold splits are needed.
type Tree struct {
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Root            *Node
}

// Node is a tree node. Leaves carry the class distribution of the training
// samples that reached them.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Probas    []float64
}

func (t *Tree) fit(X [][]float64, y []int, idx []int, numClasses int, rng *rand.Rand) error {
	if len(idx) == 0 {
		return errors.New("tree: empty sample")
	}
	t.Root = t.build(X, y, idx, 0, numClasses, rng)
	return nil
}

func (t *Tree) build(X [][]float64, y []int, idx []int, depth, numClasses int, rng *rand.Rand) *Node {
	counts := make([]int, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}

	if pure(counts) ||
		len(idx) < t.MinSamplesSplit ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return leafNode(counts)
	}

	feature, threshold, ok := t.bestSplit(X, y, idx, counts, numClasses, rng)
	if !ok {
		return leafNode(counts)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(counts)
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.build(X, y, left, depth+1, numClasses, rng),
		Right:     t.build(X, y, right, depth+1, numClasses, rng),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest gini gain over the parent impurity.
func (t *Tree) bestSplit(X [][]float64, y []int, idx []int, parentCounts []int, numClasses int, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	p := len(X[0])
	features := rng.Perm(p)
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		features = features[:t.MaxFeatures]
	}
	sort.Ints(features)

	parent := gini(parentCounts, len(idx))
	bestGain := 0.0

	type cell struct {
		v     float64
		label int
	}
	cells := make([]cell, len(idx))

	for _, f := range features {
		for k, i := range idx {
			cells[k] = cell{X[i][f], y[i]}
		}
		sort.Slice(cells, func(a, b int) bool { return cells[a].v < cells[b].v })

		leftCounts := make([]int, numClasses)
		rightCounts := append([]int(nil), parentCounts...)
		for s := 1; s < len(cells); s++ {
			leftCounts[cells[s-1].label]++
			rightCounts[cells[s-1].label]--
			if cells[s].v == cells[s-1].v {
				continue
			}
			nl, nr := s, len(cells)-s
			weighted := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(len(cells))
			if gain := parent - weighted; gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (cells[s-1].v + cells[s].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (t *Tree) leafFor(x []float64) *Node {
	n := t.Root
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

func leafNode(counts []int) *Node {
	total := 0
	for _, c := range counts {
		total += c
	}
	probas := make([]float64, len(counts))
	for c, n := range counts {
		probas[c] = float64(n) / float64(total)
	}
	return &Node{Leaf: true, Probas: probas}
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}
