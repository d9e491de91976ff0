package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PredictionInput is the raw description of a candidate IPO
type PredictionInput struct {
	Ticker           string  `json:"ticker"`
	FinalPrice       float64 `json:"final_price"`
	SharesOffered    int64   `json:"shares_offered"`
	LowPrice         float64 `json:"low_price"`
	HighPrice        float64 `json:"high_price"`
	HasWarrant       bool    `json:"has_warrant"`
	LeadUnderwriter  string  `json:"lead_underwriter"`
	Sector           string  `json:"sector"`
	IsOversubscribed bool    `json:"is_oversubscribed"` // accepted, not a model input
}

// PredictionRequest is the /predict body. Every field must be present;
// values are not range checked.
type PredictionRequest struct {
	Ticker           *string  `json:"ticker" validate:"required"`
	FinalPrice       *float64 `json:"final_price" validate:"required"`
	SharesOffered    *int64   `json:"shares_offered" validate:"required"`
	LowPrice         *float64 `json:"low_price" validate:"required"`
	HighPrice        *float64 `json:"high_price" validate:"required"`
	HasWarrant       *bool    `json:"has_warrant" validate:"required"`
	LeadUnderwriter  *string  `json:"lead_underwriter" validate:"required"`
	Sector           *string  `json:"sector" validate:"required"`
	IsOversubscribed *bool    `json:"is_oversubscribed" validate:"required"`
}

// Input dereferences a validated request
func (r *PredictionRequest) Input() PredictionInput {
	return PredictionInput{
		Ticker:           *r.Ticker,
		FinalPrice:       *r.FinalPrice,
		SharesOffered:    *r.SharesOffered,
		LowPrice:         *r.LowPrice,
		HighPrice:        *r.HighPrice,
		HasWarrant:       *r.HasWarrant,
		LeadUnderwriter:  *r.LeadUnderwriter,
		Sector:           *r.Sector,
		IsOversubscribed: *r.IsOversubscribed,
	}
}

// ClassProbabilities is the 3-way distribution returned by the classifier
type ClassProbabilities struct {
	Loss   float64 `json:"loss"`
	Profit float64 `json:"profit"`
	ARA    float64 `json:"ara"`
}

// PredictionMetrics are the engineered values computed from the input
type PredictionMetrics struct {
	SizeBillion float64 `json:"size_billion"`
	PricePos    float64 `json:"price_pos"`
}

// PredictionResponse is the envelope returned by a prediction query
type PredictionResponse struct {
	Status        string              `json:"status"`
	ID            *uuid.UUID          `json:"id,omitempty"`
	Prediction    string              `json:"prediction,omitempty"`
	Probabilities *ClassProbabilities `json:"probabilities,omitempty"`
	Metrics       *PredictionMetrics  `json:"metrics,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// IsError reports whether the response carries an error status
func (r *PredictionResponse) IsError() bool {
	return r.Status == StatusError
}

// DisplayRecord is one row of the record listing keyed by display column
type DisplayRecord map[string]interface{}

// RecordListing is the envelope returned by the record listing query
type RecordListing struct {
	Status  string
	Total   int
	Data    []DisplayRecord
	Message string
}

// MarshalJSON renders {status,total,data} on success and {status,message} on error
func (l RecordListing) MarshalJSON() ([]byte, error) {
	if l.Status == StatusError {
		return json.Marshal(struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{l.Status, l.Message})
	}

	data := l.Data
	if data == nil {
		data = []DisplayRecord{}
	}
	return json.Marshal(struct {
		Status string          `json:"status"`
		Total  int             `json:"total"`
		Data   []DisplayRecord `json:"data"`
	}{l.Status, l.Total, data})
}

// PredictionLogEntry is a stored prediction
type PredictionLogEntry struct {
	ID            uuid.UUID          `json:"id"`
	Ticker        string             `json:"ticker"`
	Input         PredictionInput    `json:"input"`
	Prediction    string             `json:"prediction"`
	Probabilities ClassProbabilities `json:"probabilities"`
	Metrics       PredictionMetrics  `json:"metrics"`
	CreatedAt     time.Time          `json:"created_at"`
}
