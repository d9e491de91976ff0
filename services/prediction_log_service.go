package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/sirupsen/logrus"
)

const (
	predictionLogServiceName = "prediction-log"
	defaultRecentLimit       = 20
	maxRecentLimit           = 200
)

// PredictionLogService stores successful predictions in Postgres
type PredictionLogService struct {
	db     *sql.DB
	now    func() time.Time
	logger *logrus.Entry
}

// NewPredictionLogService creates a log service over db. A nil db yields a
// service whose operations report STORE_NOT_CONFIGURED.
func NewPredictionLogService(db *sql.DB) *PredictionLogService {
	return &PredictionLogService{
		db:     db,
		now:    time.Now,
		logger: logrus.WithField("component", "PredictionLogService"),
	}
}

// Enabled reports whether a database is attached
func (s *PredictionLogService) Enabled() bool {
	return s != nil && s.db != nil
}

// NewLogEntry builds the stored form of a successful prediction
func NewLogEntry(input models.PredictionInput, resp models.PredictionResponse, createdAt time.Time) (models.PredictionLogEntry, error) {
	if resp.IsError() || resp.ID == nil || resp.Probabilities == nil || resp.Metrics == nil {
		return models.PredictionLogEntry{}, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
			"only successful predictions can be logged", predictionLogServiceName, "new_entry", nil)
	}
	return models.PredictionLogEntry{
		ID:            *resp.ID,
		Ticker:        input.Ticker,
		Input:         input,
		Prediction:    resp.Prediction,
		Probabilities: *resp.Probabilities,
		Metrics:       *resp.Metrics,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

func (s *PredictionLogService) notConfigured(operation string) error {
	return shared.NewServiceError(shared.ErrorCategoryConfiguration, shared.CodeStoreMissing,
		"prediction log database is not configured", predictionLogServiceName, operation, nil)
}

// Save records a successful prediction
func (s *PredictionLogService) Save(ctx context.Context, input models.PredictionInput, resp models.PredictionResponse) (*models.PredictionLogEntry, error) {
	if !s.Enabled() {
		return nil, s.notConfigured("save")
	}

	entry, err := NewLogEntry(input, resp, s.now())
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ipo_predictions (
			id, ticker, final_price, shares_offered, low_price, high_price,
			has_warrant, lead_underwriter, sector, is_oversubscribed,
			prediction, prob_loss, prob_profit, prob_ara, size_billion, price_pos, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.Ticker, input.FinalPrice, input.SharesOffered, input.LowPrice, input.HighPrice,
		input.HasWarrant, input.LeadUnderwriter, input.Sector, input.IsOversubscribed,
		entry.Prediction, entry.Probabilities.Loss, entry.Probabilities.Profit, entry.Probabilities.ARA,
		entry.Metrics.SizeBillion, entry.Metrics.PricePos, entry.CreatedAt,
	)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, "INSERT_FAILED", predictionLogServiceName, "save")
	}

	s.logger.WithFields(logrus.Fields{
		"id":         entry.ID,
		"ticker":     entry.Ticker,
		"prediction": entry.Prediction,
	}).Debug("Prediction logged")

	return &entry, nil
}

// ClampRecentLimit bounds the page size of Recent
func ClampRecentLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// Recent returns the newest logged predictions first
func (s *PredictionLogService) Recent(ctx context.Context, limit int) ([]models.PredictionLogEntry, error) {
	if !s.Enabled() {
		return nil, s.notConfigured("recent")
	}

	query := `
		SELECT id, ticker, final_price, shares_offered, low_price, high_price,
			has_warrant, lead_underwriter, sector, is_oversubscribed,
			prediction, prob_loss, prob_profit, prob_ara, size_billion, price_pos, created_at
		FROM ipo_predictions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, ClampRecentLimit(limit))
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, "QUERY_FAILED", predictionLogServiceName, "recent")
	}
	defer rows.Close()

	entries := []models.PredictionLogEntry{}
	for rows.Next() {
		var e models.PredictionLogEntry
		if err := rows.Scan(
			&e.ID, &e.Input.Ticker, &e.Input.FinalPrice, &e.Input.SharesOffered, &e.Input.LowPrice, &e.Input.HighPrice,
			&e.Input.HasWarrant, &e.Input.LeadUnderwriter, &e.Input.Sector, &e.Input.IsOversubscribed,
			&e.Prediction, &e.Probabilities.Loss, &e.Probabilities.Profit, &e.Probabilities.ARA,
			&e.Metrics.SizeBillion, &e.Metrics.PricePos, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log row: %w", err)
		}
		e.Ticker = e.Input.Ticker
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction log rows: %w", err)
	}

	return entries, nil
}
