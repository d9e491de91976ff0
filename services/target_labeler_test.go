package services

import (
	"testing"

	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestClassifyReturnBoundaries(t *testing.T) {
	tests := []struct {
		ret  float64
		want models.ReturnClass
	}{
		{0.35, models.ClassHighGain},
		{0.20, models.ClassHighGain},
		{0.19999, models.ClassProfit},
		{0.0001, models.ClassProfit},
		{0, models.ClassLoss},
		{-0.25, models.ClassLoss},
	}

	for _, tt := range tests {
		got, ok := ClassifyReturn(floatPtr(tt.ret))
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "return %v", tt.ret)
	}

	_, ok := ClassifyReturn(nil)
	assert.False(t, ok, "missing return has no label")
}

func TestClassifyReturnProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("label follows the return thresholds", prop.ForAll(
		func(ret float64) bool {
			class, ok := ClassifyReturn(&ret)
			if !ok {
				return false
			}
			switch {
			case ret >= 0.20:
				return class == models.ClassHighGain
			case ret > 0:
				return class == models.ClassProfit
			default:
				return class == models.ClassLoss
			}
		},
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}

func TestLabelTrainingSetSkipsUnlabeledRows(t *testing.T) {
	records := []models.IPORecord{
		{Ticker: "A", ReturnD1: floatPtr(0.5)},
		{Ticker: "B"},
		{Ticker: "C", ReturnD1: floatPtr(-0.1)},
	}
	features := []models.FeatureRow{{Sector: "a"}, {Sector: "b"}, {Sector: "c"}}

	labeled := LabelTrainingSet(records, features)
	assert.Len(t, labeled, 2)
	assert.Equal(t, "a", labeled[0].Features.Sector)
	assert.Equal(t, models.ClassHighGain, labeled[0].Class)
	assert.Equal(t, "c", labeled[1].Features.Sector)
	assert.Equal(t, models.ClassLoss, labeled[1].Class)
}
