package services

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallForestConfig() *config.ModelConfig {
	return &config.ModelConfig{Trees: 25, MaxDepth: 6, MinSamplesLeaf: 2, Seed: 42, MaxConcurrency: 4}
}

// separableData puts each class in its own band of the first feature
func separableData(n int) ([][]float64, []models.ReturnClass) {
	rng := rand.New(rand.NewSource(1))
	x := make([][]float64, 0, n)
	y := make([]models.ReturnClass, 0, n)
	for i := 0; i < n; i++ {
		class := models.ReturnClass(i % models.NumClasses)
		x = append(x, []float64{float64(class)*10 + rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()})
		y = append(y, class)
	}
	return x, y
}

func TestRandomForestLearnsSeparableClasses(t *testing.T) {
	x, y := separableData(90)

	forest := NewRandomForest(smallForestConfig())
	require.NoError(t, forest.Fit(context.Background(), x, y))
	assert.True(t, forest.IsFitted())
	assert.Equal(t, 4, forest.NumFeatures())

	for c := 0; c < models.NumClasses; c++ {
		class, proba, err := forest.Predict([]float64{float64(c)*10 + 0.5, 0.5, 0.5, 0.5})
		require.NoError(t, err)
		assert.Equal(t, models.ReturnClass(c), class)

		var sum float64
		for _, p := range proba {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestRandomForestIsDeterministic(t *testing.T) {
	x, y := separableData(60)
	sample := []float64{9.7, 0.1, 0.9, 0.3}

	first := NewRandomForest(smallForestConfig())
	require.NoError(t, first.Fit(context.Background(), x, y))
	second := NewRandomForest(&config.ModelConfig{Trees: 25, MaxDepth: 6, MinSamplesLeaf: 2, Seed: 42, MaxConcurrency: 1})
	require.NoError(t, second.Fit(context.Background(), x, y))

	p1, err := first.PredictProba(sample)
	require.NoError(t, err)
	p2, err := second.PredictProba(sample)
	require.NoError(t, err)
	assert.Equal(t, p1, p2, "concurrency must not change the fitted forest")
}

func TestRandomForestAbsentClassHasZeroProbability(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}, {10}, {11}, {12}, {13}}
	y := []models.ReturnClass{0, 0, 0, 0, 2, 2, 2, 2}

	forest := NewRandomForest(smallForestConfig())
	require.NoError(t, forest.Fit(context.Background(), x, y))

	proba, err := forest.PredictProba([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, proba[models.ClassProfit])
}

func TestRandomForestErrors(t *testing.T) {
	forest := NewRandomForest(smallForestConfig())

	_, err := forest.PredictProba([]float64{1})
	assert.Error(t, err, "unfitted forest")

	assert.Error(t, forest.Fit(context.Background(), nil, nil))
	assert.Error(t, forest.Fit(context.Background(), [][]float64{{1}}, []models.ReturnClass{0, 1}))
	assert.Error(t, forest.Fit(context.Background(), [][]float64{{1}, {1, 2}}, []models.ReturnClass{0, 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := separableData(30)
	assert.Error(t, forest.Fit(ctx, x, y))
	assert.False(t, forest.IsFitted())

	require.NoError(t, forest.Fit(context.Background(), x, y))
	_, err = forest.PredictProba([]float64{1, 2})
	assert.Error(t, err, "width mismatch")
}

func TestBalancedClassWeights(t *testing.T) {
	y := []models.ReturnClass{0, 0, 0, 0, 0, 0, 1, 1, 2}
	w := balancedClassWeights(y)

	assert.InDelta(t, 9.0/(3*6), w[0], 1e-12)
	assert.InDelta(t, 9.0/(3*2), w[1], 1e-12)
	assert.InDelta(t, 9.0/(3*1), w[2], 1e-12)

	w = balancedClassWeights([]models.ReturnClass{0, 2, 2})
	assert.InDelta(t, 3.0/2, w[0], 1e-12)
	assert.Equal(t, 0.0, w[1])
	assert.InDelta(t, 3.0/4, w[2], 1e-12)
}

func TestArgmaxClassPrefersLowerOnTie(t *testing.T) {
	assert.Equal(t, models.ClassLoss, argmaxClass([models.NumClasses]float64{0.4, 0.4, 0.2}))
	assert.Equal(t, models.ClassProfit, argmaxClass([models.NumClasses]float64{0.2, 0.4, 0.4}))
}

func TestWeightedGini(t *testing.T) {
	assert.Equal(t, 0.0, weightedGini([models.NumClasses]float64{4, 0, 0}, 4))
	assert.InDelta(t, 2.0, weightedGini([models.NumClasses]float64{2, 2, 0}, 4), 1e-12)
	assert.False(t, math.IsNaN(weightedGini([models.NumClasses]float64{}, 0)))
}
