package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	forestServiceName = "random-forest"
	leafNode          = -1
	treeSeedStride    = 7919
)

type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	proba     [models.NumClasses]float64
}

type decisionTree struct {
	nodes []treeNode
}

func (t *decisionTree) leaf(x []float64) *treeNode {
	node := &t.nodes[0]
	for node.feature != leafNode {
		if x[node.feature] <= node.threshold {
			node = &t.nodes[node.left]
		} else {
			node = &t.nodes[node.right]
		}
	}
	return node
}

// RandomForest is a bagged ensemble of CART classifiers over the three return classes.
// Class weights are balanced inversely to class frequency.
type RandomForest struct {
	cfg          config.ModelConfig
	trees        []*decisionTree
	numFeatures  int
	classWeights [models.NumClasses]float64
	logger       *logrus.Entry
}

// NewRandomForest creates an unfitted forest
func NewRandomForest(cfg *config.ModelConfig) *RandomForest {
	if cfg == nil {
		cfg = config.DefaultModelConfig()
	}
	return &RandomForest{
		cfg:    *cfg,
		logger: logrus.WithField("component", "RandomForest"),
	}
}

// IsFitted reports whether Fit has completed
func (f *RandomForest) IsFitted() bool {
	return len(f.trees) > 0
}

// NumFeatures returns the width of the training matrix
func (f *RandomForest) NumFeatures() int {
	return f.numFeatures
}

// ClassWeights returns the balanced weight applied to each class
func (f *RandomForest) ClassWeights() [models.NumClasses]float64 {
	return f.classWeights
}

// Fit grows the trees concurrently. Each tree draws from its own seeded
// source, so the fitted forest depends only on the data and the seed.
func (f *RandomForest) Fit(ctx context.Context, x [][]float64, y []models.ReturnClass) error {
	if len(x) == 0 {
		return fmt.Errorf("%s: no training rows", forestServiceName)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%s: %d rows but %d labels", forestServiceName, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%s: training rows have no features", forestServiceName)
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%s: row %d has %d features, want %d", forestServiceName, i, len(row), width)
		}
	}
	for i, class := range y {
		if class < 0 || int(class) >= models.NumClasses {
			return fmt.Errorf("%s: row %d has invalid class %d", forestServiceName, i, class)
		}
	}
	if f.cfg.Trees <= 0 {
		return fmt.Errorf("%s: tree count must be positive", forestServiceName)
	}

	classWeights := balancedClassWeights(y)
	sampleWeights := make([]float64, len(y))
	for i, class := range y {
		sampleWeights[i] = classWeights[class]
	}

	maxFeatures := int(math.Sqrt(float64(width)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	trees := make([]*decisionTree, f.cfg.Trees)
	g, gctx := errgroup.WithContext(ctx)
	if f.cfg.MaxConcurrency > 0 {
		g.SetLimit(f.cfg.MaxConcurrency)
	}

	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(i)*treeSeedStride))
			sample := make([]int, len(x))
			for j := range sample {
				sample[j] = rng.Intn(len(x))
			}

			b := &treeBuilder{
				x:           x,
				y:           y,
				weights:     sampleWeights,
				maxDepth:    f.cfg.MaxDepth,
				minLeaf:     f.cfg.MinSamplesLeaf,
				maxFeatures: maxFeatures,
				rng:         rng,
			}
			b.build(sample, 0)
			trees[i] = &decisionTree{nodes: b.nodes}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: fit interrupted: %w", forestServiceName, err)
	}

	f.trees = trees
	f.numFeatures = width
	f.classWeights = classWeights

	f.logger.WithFields(logrus.Fields{
		"trees":    len(trees),
		"rows":     len(x),
		"features": width,
	}).Debug("Forest fitted")

	return nil
}

// PredictProba averages the leaf class distributions of every tree.
// Classes absent from training get probability 0.
func (f *RandomForest) PredictProba(x []float64) ([models.NumClasses]float64, error) {
	var proba [models.NumClasses]float64
	if !f.IsFitted() {
		return proba, fmt.Errorf("%s: model is not fitted", forestServiceName)
	}
	if len(x) != f.numFeatures {
		return proba, fmt.Errorf("%s: got %d features, want %d", forestServiceName, len(x), f.numFeatures)
	}

	for _, tree := range f.trees {
		leaf := tree.leaf(x)
		for c := range proba {
			proba[c] += leaf.proba[c]
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba, nil
}

// Predict returns the most probable class; ties go to the lower class
func (f *RandomForest) Predict(x []float64) (models.ReturnClass, [models.NumClasses]float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, proba, err
	}
	return argmaxClass(proba), proba, nil
}

func argmaxClass(proba [models.NumClasses]float64) models.ReturnClass {
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return models.ReturnClass(best)
}

// balancedClassWeights computes n / (k * count_c) over the classes present in y
func balancedClassWeights(y []models.ReturnClass) [models.NumClasses]float64 {
	var counts [models.NumClasses]int
	for _, class := range y {
		counts[class]++
	}

	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}

	var weights [models.NumClasses]float64
	for class, c := range counts {
		if c > 0 {
			weights[class] = float64(len(y)) / (float64(present) * float64(c))
		}
	}
	return weights
}

type treeBuilder struct {
	x           [][]float64
	y           []models.ReturnClass
	weights     []float64
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
	nodes       []treeNode
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) classTotals(idx []int) ([models.NumClasses]float64, float64) {
	var totals [models.NumClasses]float64
	var sum float64
	for _, i := range idx {
		totals[b.y[i]] += b.weights[i]
		sum += b.weights[i]
	}
	return totals, sum
}

// build appends the subtree for idx and returns its node index
func (b *treeBuilder) build(idx []int, depth int) int {
	totals, sum := b.classTotals(idx)

	node := treeNode{feature: leafNode}
	if sum > 0 {
		for c := range totals {
			node.proba[c] = totals[c] / sum
		}
	}

	pos := len(b.nodes)
	b.nodes = append(b.nodes, node)

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || isPure(totals) {
		return pos
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[pos].feature = best.feature
	b.nodes[pos].threshold = best.threshold
	b.nodes[pos].left = l
	b.nodes[pos].right = r
	return pos
}

// bestSplit scans random features until maxFeatures non-constant ones have been evaluated
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false

	sorted := make([]int, len(idx))
	visited := 0

	for _, feature := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures {
			break
		}

		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][feature] < b.x[sorted[c]][feature]
		})
		if b.x[sorted[0]][feature] == b.x[sorted[len(sorted)-1]][feature] {
			continue
		}
		visited++

		rightTotals, rightSum := b.classTotals(sorted)
		var leftTotals [models.NumClasses]float64
		var leftSum float64

		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftTotals[b.y[i]] += b.weights[i]
			rightTotals[b.y[i]] -= b.weights[i]
			leftSum += b.weights[i]
			rightSum -= b.weights[i]

			current := b.x[i][feature]
			next := b.x[sorted[k+1]][feature]
			if current == next {
				continue
			}
			if k+1 < b.minLeaf || len(sorted)-(k+1) < b.minLeaf {
				continue
			}

			impurity := weightedGini(leftTotals, leftSum) + weightedGini(rightTotals, rightSum)
			if impurity < best.impurity {
				threshold := current + (next-current)/2
				if threshold == next {
					threshold = current
				}
				best = split{feature: feature, threshold: threshold, impurity: impurity}
				found = true
			}
		}
	}

	return best, found
}

// weightedGini is the Gini impurity scaled by the node weight
func weightedGini(totals [models.NumClasses]float64, sum float64) float64 {
	if sum <= 0 {
		return 0
	}
	var sq float64
	for _, t := range totals {
		sq += t * t
	}
	return sum - sq/sum
}

func isPure(totals [models.NumClasses]float64) bool {
	nonZero := 0
	for _, t := range totals {
		if t > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}
