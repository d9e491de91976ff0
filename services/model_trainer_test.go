package services

import (
	"context"
	"testing"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledRow(sector string, class models.ReturnClass, size float64) LabeledRow {
	return LabeledRow{
		Features: models.FeatureRow{
			OfferingSizeBillion: floatPtr(size),
			PriceRangePos:       floatPtr(0.5),
			HasWarrant:          floatPtr(0),
			IsTopUnderwriter:    floatPtr(1),
			ListingMonth:        floatPtr(6),
			Sector:              sector,
		},
		Class: class,
	}
}

func TestBuildTrainingSetEncodesSectors(t *testing.T) {
	rows := []LabeledRow{
		labeledRow("Technology", models.ClassHighGain, 1),
		labeledRow("Basic Materials", models.ClassLoss, 2),
		labeledRow("Energy", models.ClassProfit, 3),
		labeledRow("", models.ClassLoss, 4),
	}
	incomplete := labeledRow("Zinc", models.ClassProfit, 5)
	incomplete.Features.ListingMonth = nil
	rows = append(rows, incomplete)

	set := BuildTrainingSet(rows)

	assert.Equal(t, []string{
		models.FeatureOfferingSize,
		models.FeaturePriceRangePos,
		models.FeatureHasWarrant,
		models.FeatureIsTopUnderwriter,
		models.FeatureListingMonth,
		"Sector_Energy",
		"Sector_Technology",
		"Sector_Zinc",
	}, set.Schema.Names(), "sectors are sorted and the first one is dropped")

	require.Len(t, set.X, 4)
	assert.Equal(t, 1, set.Dropped)
	assert.Equal(t, []float64{1, 0.5, 0, 1, 6, 0, 1, 0}, set.X[0])
	assert.Equal(t, []float64{2, 0.5, 0, 1, 6, 0, 0, 0}, set.X[1], "reference sector has no indicator")
	assert.Equal(t, []float64{3, 0.5, 0, 1, 6, 1, 0, 0}, set.X[2])
	assert.Equal(t, []float64{4, 0.5, 0, 1, 6, 0, 0, 0}, set.X[3], "empty sector has no indicator")
	assert.Equal(t, []models.ReturnClass{models.ClassHighGain, models.ClassLoss, models.ClassProfit, models.ClassLoss}, set.Y)
}

func TestTrainEmptySet(t *testing.T) {
	trainer := NewModelTrainer(nil)

	_, err := trainer.Train(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.CodeModelNotTrained))
}

func TestTrainProducesModel(t *testing.T) {
	var rows []LabeledRow
	for i := 0; i < 12; i++ {
		rows = append(rows, labeledRow("Energy", models.ReturnClass(i%3), float64(i%3)))
	}

	trainer := NewModelTrainer(&config.ModelConfig{Trees: 10, MaxDepth: 4, MinSamplesLeaf: 2, Seed: 42, MaxConcurrency: 2})
	model, err := trainer.Train(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 12, model.TrainingRows)
	assert.Equal(t, [models.NumClasses]int{4, 4, 4}, model.ClassCounts)
	assert.Equal(t, len(models.NumericFeatures), model.Schema.Len(), "a single sector yields no indicator columns")
	assert.True(t, model.Forest.IsFitted())
}
