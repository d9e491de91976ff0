package services

import (
	"context"
	"sort"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/sirupsen/logrus"
)

const trainerServiceName = "model-trainer"

// TrainingSet is the numeric design matrix handed to the forest
type TrainingSet struct {
	Schema  *models.FeatureSchema
	X       [][]float64
	Y       []models.ReturnClass
	Dropped int
}

// TrainedModel bundles a fitted forest with the schema it was fitted on
type TrainedModel struct {
	Forest       *RandomForest
	Schema       *models.FeatureSchema
	TrainingRows int
	ClassCounts  [models.NumClasses]int
}

// BuildTrainingSet one-hot encodes sectors over the labeled rows, dropping the
// first sector in sorted order as reference. Rows with an undefined numeric
// feature are dropped.
func BuildTrainingSet(labeled []LabeledRow) *TrainingSet {
	seen := make(map[string]bool)
	var sectors []string
	for _, row := range labeled {
		if row.Features.Sector == "" || seen[row.Features.Sector] {
			continue
		}
		seen[row.Features.Sector] = true
		sectors = append(sectors, row.Features.Sector)
	}
	sort.Strings(sectors)

	names := append([]string{}, models.NumericFeatures...)
	if len(sectors) > 1 {
		for _, sector := range sectors[1:] {
			names = append(names, models.SectorFeature(sector))
		}
	}
	schema := models.NewFeatureSchema(names)

	set := &TrainingSet{Schema: schema}
	for _, row := range labeled {
		numeric, ok := numericValues(row.Features)
		if !ok {
			set.Dropped++
			continue
		}

		vec := schema.NewVector()
		for i, name := range models.NumericFeatures {
			schema.Set(vec, name, numeric[i])
		}
		if row.Features.Sector != "" {
			schema.Set(vec, models.SectorFeature(row.Features.Sector), 1)
		}

		set.X = append(set.X, vec)
		set.Y = append(set.Y, row.Class)
	}

	return set
}

func numericValues(row models.FeatureRow) ([]float64, bool) {
	fields := []*float64{
		row.OfferingSizeBillion,
		row.PriceRangePos,
		row.HasWarrant,
		row.IsTopUnderwriter,
		row.ListingMonth,
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		if f == nil {
			return nil, false
		}
		values[i] = *f
	}
	return values, true
}

// ModelTrainer fits the return classifier
type ModelTrainer struct {
	cfg    *config.ModelConfig
	logger *logrus.Entry
}

// NewModelTrainer creates a trainer with the given forest parameters
func NewModelTrainer(cfg *config.ModelConfig) *ModelTrainer {
	if cfg == nil {
		cfg = config.DefaultModelConfig()
	}
	return &ModelTrainer{
		cfg:    cfg,
		logger: logrus.WithField("component", "ModelTrainer"),
	}
}

// Train builds the design matrix and fits a forest on it. An empty training
// set yields a MODEL_NOT_TRAINED error.
func (t *ModelTrainer) Train(ctx context.Context, labeled []LabeledRow) (*TrainedModel, error) {
	set := BuildTrainingSet(labeled)
	if len(set.X) == 0 {
		return nil, shared.NewServiceError(shared.ErrorCategoryModel, shared.CodeModelNotTrained,
			"training set is empty", trainerServiceName, "train", nil)
	}

	forest := NewRandomForest(t.cfg)
	if err := forest.Fit(ctx, set.X, set.Y); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryModel, shared.CodeModelNotTrained, trainerServiceName, "train")
	}

	model := &TrainedModel{
		Forest:       forest,
		Schema:       set.Schema,
		TrainingRows: len(set.X),
	}
	for _, class := range set.Y {
		model.ClassCounts[class]++
	}

	t.logger.WithFields(logrus.Fields{
		"rows":         len(set.X),
		"dropped":      set.Dropped,
		"features":     set.Schema.Len(),
		"trees":        t.cfg.Trees,
		"class_loss":   model.ClassCounts[models.ClassLoss],
		"class_profit": model.ClassCounts[models.ClassProfit],
		"class_ara":    model.ClassCounts[models.ClassHighGain],
		"max_depth":    t.cfg.MaxDepth,
		"min_samples":  t.cfg.MinSamplesLeaf,
	}).Info("Model trained")

	return model, nil
}
