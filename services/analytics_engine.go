package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	engineServiceName = "analytics-engine"
	missingValue      = "-"
)

// Display columns of the record listing, in order
var displayColumns = []string{
	models.ColumnTicker,
	models.ColumnCompanyName,
	models.ColumnSector,
	models.ColumnFinalPrice,
	models.ColumnListingDate,
	models.ColumnReturnD1,
	models.ColumnUnderwriters,
}

// Derived listing fields
const (
	FieldLeadUnderwriter = "Lead_UW"
	FieldD1ClosePrice    = "D1_Close_Price"
)

var classKeys = [models.NumClasses]string{"loss", "profit", "ara"}

// EngineStage is how far the startup pipeline got
type EngineStage string

const (
	StageEmpty   EngineStage = "empty"
	StageLoaded  EngineStage = "loaded"
	StageTrained EngineStage = "trained"
)

// EngineStatus summarizes the engine for health reporting
type EngineStatus struct {
	Stage           EngineStage `json:"stage"`
	Records         int         `json:"records"`
	TrainingRows    int         `json:"training_rows"`
	Features        []string    `json:"features"`
	TopUnderwriters []string    `json:"top_underwriters"`
	ReferenceRows   int         `json:"reference_rows"`
	LoadError       string      `json:"load_error,omitempty"`
	TrainError      string      `json:"train_error,omitempty"`
}

// EngineConfig configures engine construction
type EngineConfig struct {
	DataPath    string
	WarrantPath string
	Model       *config.ModelConfig
	Clock       func() time.Time
	Collectors  *shared.AnalyticsCollectors
}

// AnalyticsEngine holds the loaded dataset, engineered features and the
// trained classifier. It is never mutated after construction, so queries
// may run concurrently.
type AnalyticsEngine struct {
	records       []models.IPORecord
	loaded        bool
	features      *FeatureSet
	model         *TrainedModel
	referenceRows int
	loadErr       error
	trainErr      error

	utility    *UtilityService
	clock      func() time.Time
	metrics    *shared.ServiceMetrics
	collectors *shared.AnalyticsCollectors
	logger     *logrus.Entry
}

// NewAnalyticsEngine runs load → features → labels → training. Failures at
// any stage are logged and leave the engine degraded rather than aborting.
func NewAnalyticsEngine(ctx context.Context, cfg EngineConfig) *AnalyticsEngine {
	utility := NewUtilityService()
	loader := NewDatasetLoader(utility)
	logger := logrus.WithField("component", "AnalyticsEngine")

	logger.Info("Initializing IPO analytics engine")

	records, err := loader.LoadIPORecords(cfg.DataPath)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.DataPath).Error("Failed to load IPO dataset")
		e := newEngine(cfg, utility)
		e.loadErr = err
		e.publishGauges()
		return e
	}

	e := BuildAnalyticsEngine(ctx, records, cfg)

	if cfg.WarrantPath != "" {
		rows, err := loader.CountReferenceRows(cfg.WarrantPath)
		if err != nil {
			logger.WithError(err).WithField("path", cfg.WarrantPath).Warn("Warrant reference file not loaded")
		} else {
			e.referenceRows = rows
			logger.WithField("rows", rows).Info("Warrant reference file loaded")
		}
	}

	return e
}

// BuildAnalyticsEngine runs the pipeline over records already in memory
func BuildAnalyticsEngine(ctx context.Context, records []models.IPORecord, cfg EngineConfig) *AnalyticsEngine {
	e := newEngine(cfg, NewUtilityService())
	e.records = records
	e.loaded = true

	e.features = NewFeatureEngineer(e.utility).Transform(records)
	labeled := LabelTrainingSet(records, e.features.Rows)

	model, err := NewModelTrainer(cfg.Model).Train(ctx, labeled)
	if err != nil {
		e.trainErr = err
		e.logger.WithError(err).WithField("labeled_rows", len(labeled)).Error("Model training failed")
	} else {
		e.model = model
	}

	e.publishGauges()
	e.logger.WithFields(logrus.Fields{
		"stage":            e.Stage(),
		"records":          len(records),
		"top_underwriters": len(e.features.TopUnderwriters),
	}).Info("IPO analytics engine ready")

	return e
}

func newEngine(cfg EngineConfig, utility *UtilityService) *AnalyticsEngine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AnalyticsEngine{
		utility:    utility,
		clock:      clock,
		metrics:    shared.NewServiceMetrics(engineServiceName),
		collectors: cfg.Collectors,
		logger:     logrus.WithField("component", "AnalyticsEngine"),
	}
}

func (e *AnalyticsEngine) publishGauges() {
	if e.collectors == nil {
		return
	}
	e.collectors.RecordsLoaded.Set(float64(len(e.records)))
	if e.model != nil {
		e.collectors.TrainingRows.Set(float64(e.model.TrainingRows))
		e.collectors.ModelReady.Set(1)
	} else {
		e.collectors.TrainingRows.Set(0)
		e.collectors.ModelReady.Set(0)
	}
}

// Stage reports how far initialization got
func (e *AnalyticsEngine) Stage() EngineStage {
	switch {
	case e.model != nil:
		return StageTrained
	case e.loaded:
		return StageLoaded
	default:
		return StageEmpty
	}
}

// Status returns a summary of the engine state
func (e *AnalyticsEngine) Status() EngineStatus {
	status := EngineStatus{
		Stage:           e.Stage(),
		Records:         len(e.records),
		Features:        e.FeatureNames(),
		TopUnderwriters: []string{},
		ReferenceRows:   e.referenceRows,
	}
	if e.features != nil {
		status.TopUnderwriters = append(status.TopUnderwriters, e.features.TopUnderwriters...)
	}
	if e.model != nil {
		status.TrainingRows = e.model.TrainingRows
	}
	if e.loadErr != nil {
		status.LoadError = e.loadErr.Error()
	}
	if e.trainErr != nil {
		status.TrainError = e.trainErr.Error()
	}
	return status
}

// FeatureNames returns the trained column layout, empty without a model
func (e *AnalyticsEngine) FeatureNames() []string {
	if e.model == nil {
		return []string{}
	}
	return e.model.Schema.Names()
}

// Metrics returns the in-process query counters
func (e *AnalyticsEngine) Metrics() shared.MetricsSnapshot {
	return e.metrics.GetSnapshot()
}

func (e *AnalyticsEngine) hasColumn(name string) bool {
	return len(e.records) > 0 && e.records[0].HasColumn(name)
}

// ListRecords returns the display projection of every record, optionally
// filtered by a case-insensitive match on ticker or company name
func (e *AnalyticsEngine) ListRecords(search string) (listing models.RecordListing) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			serviceErr := shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeListing,
				fmt.Sprint(r), engineServiceName, "list_records", nil).WithDetails(logrus.Fields{"search": search})
			serviceErr.LogError()
			listing = models.RecordListing{Status: models.StatusError, Message: serviceErr.Message}
		}
		e.observe("list_records", listing.Status == models.StatusSuccess, time.Since(start))
	}()

	if !e.loaded {
		serviceErr := shared.NewServiceError(shared.ErrorCategoryResource, shared.CodeDataNotLoaded,
			"Data has not been loaded", engineServiceName, "list_records", e.loadErr)
		serviceErr.LogError()
		return models.RecordListing{Status: models.StatusError, Message: serviceErr.Message}
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	columns := make([]string, 0, len(displayColumns))
	for _, c := range displayColumns {
		if e.hasColumn(c) {
			columns = append(columns, c)
		}
	}

	data := make([]models.DisplayRecord, 0, len(e.records))
	for i := range e.records {
		r := &e.records[i]
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.Ticker), needle) &&
			!strings.Contains(strings.ToLower(r.CompanyName), needle) {
			continue
		}
		data = append(data, e.displayRecord(r, columns))
	}

	return models.RecordListing{Status: models.StatusSuccess, Total: len(data), Data: data}
}

func (e *AnalyticsEngine) displayRecord(r *models.IPORecord, columns []string) models.DisplayRecord {
	item := make(models.DisplayRecord, len(columns)+2)

	for _, c := range columns {
		switch c {
		case models.ColumnTicker:
			item[c] = textOrMissing(r.Ticker)
		case models.ColumnCompanyName:
			item[c] = textOrMissing(r.CompanyName)
		case models.ColumnSector:
			item[c] = textOrMissing(r.Sector)
		case models.ColumnUnderwriters:
			item[c] = textOrMissing(r.Underwriters)
			item[FieldLeadUnderwriter] = e.utility.LeadUnderwriter(textOrMissing(r.Underwriters))
		case models.ColumnFinalPrice:
			item[c] = numberOrMissing(r.FinalPrice)
		case models.ColumnReturnD1:
			item[c] = numberOrMissing(r.ReturnD1)
		case models.ColumnListingDate:
			if r.ListingDate != nil {
				item[c] = e.utility.FormatDate(*r.ListingDate)
			} else {
				item[c] = missingValue
			}
		}
	}

	if e.hasColumn(models.ColumnFinalPrice) && e.hasColumn(models.ColumnReturnD1) &&
		r.FinalPrice != nil && r.ReturnD1 != nil {
		item[FieldD1ClosePrice] = int64(math.RoundToEven(*r.FinalPrice * (1 + *r.ReturnD1)))
	}

	return item
}

func textOrMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

func numberOrMissing(v *float64) interface{} {
	if v == nil {
		return missingValue
	}
	return *v
}

// FeatureVector encodes a prediction input against the trained column layout.
// Every column starts at zero; an unknown sector sets no indicator.
func (e *AnalyticsEngine) FeatureVector(input models.PredictionInput) ([]float64, models.PredictionMetrics, error) {
	if e.model == nil {
		return nil, models.PredictionMetrics{}, shared.NewServiceError(shared.ErrorCategoryModel, shared.CodeModelNotTrained,
			"Model has not been trained.", engineServiceName, "feature_vector", nil)
	}

	size := OfferingSizeBillion(input.FinalPrice, float64(input.SharesOffered))
	pos := PriceRangePosition(input.FinalPrice, input.LowPrice, input.HighPrice)

	schema := e.model.Schema
	vec := schema.NewVector()
	schema.Set(vec, models.FeatureOfferingSize, size)
	schema.Set(vec, models.FeaturePriceRangePos, pos)
	schema.Set(vec, models.FeatureHasWarrant, boolToFloat(input.HasWarrant))
	schema.Set(vec, models.FeatureIsTopUnderwriter, boolToFloat(e.features.IsTopUnderwriter(e.utility.LeadUnderwriter(input.LeadUnderwriter))))
	schema.Set(vec, models.FeatureListingMonth, float64(e.clock().Month()))
	schema.Set(vec, models.SectorFeature(input.Sector), 1)

	return vec, models.PredictionMetrics{SizeBillion: size, PricePos: pos}, nil
}

// Predict classifies one candidate IPO. Errors are reported in the envelope.
func (e *AnalyticsEngine) Predict(input models.PredictionInput) (resp models.PredictionResponse) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			resp = e.predictionFailure(input, fmt.Errorf("%v", r))
		}
		e.observe("predict", !resp.IsError(), time.Since(start))
		if e.collectors != nil && resp.IsError() {
			e.collectors.PredictionErrors.Inc()
		}
	}()

	if e.model == nil {
		serviceErr := shared.NewServiceError(shared.ErrorCategoryModel, shared.CodeModelNotTrained,
			"Model has not been trained.", engineServiceName, "predict", e.trainErr)
		serviceErr.LogError()
		return models.PredictionResponse{Status: models.StatusError, Message: serviceErr.Message}
	}

	vec, metrics, err := e.FeatureVector(input)
	if err != nil {
		return e.predictionFailure(input, err)
	}

	class, proba, err := e.model.Forest.Predict(vec)
	if err != nil {
		return e.predictionFailure(input, err)
	}

	if e.collectors != nil {
		e.collectors.Predictions.WithLabelValues(classKeys[class]).Inc()
	}
	e.metrics.IncrementCustomCounter("class_" + classKeys[class])

	id := uuid.New()
	return models.PredictionResponse{
		Status:     models.StatusSuccess,
		ID:         &id,
		Prediction: class.Label(),
		Probabilities: &models.ClassProbabilities{
			Loss:   proba[models.ClassLoss],
			Profit: proba[models.ClassProfit],
			ARA:    proba[models.ClassHighGain],
		},
		Metrics: &metrics,
	}
}

func (e *AnalyticsEngine) predictionFailure(input models.PredictionInput, cause error) models.PredictionResponse {
	serviceErr := shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodePrediction,
		fmt.Sprintf("Prediction Error: %v", cause), engineServiceName, "predict", cause).
		WithDetails(logrus.Fields{"ticker": input.Ticker})
	serviceErr.LogError()
	return models.PredictionResponse{Status: models.StatusError, Message: serviceErr.Message}
}

// LogMetricsSummary writes the query counters to the log
func (e *AnalyticsEngine) LogMetricsSummary() {
	e.metrics.LogSummary()
}

func (e *AnalyticsEngine) observe(query string, success bool, elapsed time.Duration) {
	e.metrics.RecordRequest(success, elapsed)
	if e.collectors != nil {
		e.collectors.QueryDuration.WithLabelValues(query).Observe(elapsed.Seconds())
	}
}
