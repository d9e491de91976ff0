package models

// DefaultScenarioDays is used when a request leaves days unset
const DefaultScenarioDays = 3

// MaxScenarioDays caps the simulated horizon
const MaxScenarioDays = 15

// Request bounds keeping compounded prices and capital within int64
const (
	MaxScenarioFinalPrice = 1_000_000_000
	MaxScenarioLots       = 1_000_000
)

// ScenarioRequest describes a multi-day price-limit simulation
type ScenarioRequest struct {
	FinalPrice float64 `json:"final_price" validate:"gt=0,lte=1000000000"`
	Lots       int64   `json:"lots" validate:"gte=1,lte=1000000"`
	Days       int     `json:"days"`
}

// ScenarioStep is one simulated trading day
type ScenarioStep struct {
	Day   int     `json:"day"`
	Price int64   `json:"price"`
	PnL   float64 `json:"pnl"`
	Pct   float64 `json:"pct"`
}

// ScenarioResponse holds the upper-limit (ARA) and lower-limit (ARB) paths
type ScenarioResponse struct {
	Status  string         `json:"status"`
	Days    int            `json:"days"`
	Capital float64        `json:"capital"`
	ARA     []ScenarioStep `json:"ara"`
	ARB     []ScenarioStep `json:"arb"`
}
