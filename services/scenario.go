package services

import (
	"math"

	"github.com/fenilmodi00/ipo-analytics/models"
)

const (
	// SharesPerLot is the exchange board lot
	SharesPerLot = 100
	// MinTickPrice is the lowest price a lower-limit path can reach
	MinTickPrice = 50
)

// DailyLimitPct returns the auto-rejection percentage for a reference price
func DailyLimitPct(price float64) float64 {
	switch {
	case price < 200:
		return 0.35
	case price <= 5000:
		return 0.25
	default:
		return 0.20
	}
}

// ClampScenarioDays applies the default and the [1, MaxScenarioDays] bounds
func ClampScenarioDays(days int) int {
	if days == 0 {
		return models.DefaultScenarioDays
	}
	if days < 1 {
		return 1
	}
	if days > models.MaxScenarioDays {
		return models.MaxScenarioDays
	}
	return days
}

// SimulateScenario compounds consecutive upper-limit (ARA) and lower-limit
// (ARB) days from the final offering price. Each day's limit is chosen from
// the previous close.
func SimulateScenario(req models.ScenarioRequest) models.ScenarioResponse {
	days := ClampScenarioDays(req.Days)
	lotShares := float64(SharesPerLot * req.Lots)

	resp := models.ScenarioResponse{
		Status:  models.StatusSuccess,
		Days:    days,
		Capital: lotShares * req.FinalPrice,
		ARA:     make([]models.ScenarioStep, 0, days),
		ARB:     make([]models.ScenarioStep, 0, days),
	}

	up, down := req.FinalPrice, req.FinalPrice
	for day := 1; day <= days; day++ {
		upPct := DailyLimitPct(up)
		nextUp := math.Floor(up * (1 + upPct))
		resp.ARA = append(resp.ARA, models.ScenarioStep{
			Day:   day,
			Price: int64(nextUp),
			PnL:   (nextUp - req.FinalPrice) * lotShares,
			Pct:   upPct,
		})
		up = nextUp

		downPct := DailyLimitPct(down)
		nextDown := math.Max(math.Floor(down*(1-downPct)), MinTickPrice)
		resp.ARB = append(resp.ARB, models.ScenarioStep{
			Day:   day,
			Price: int64(nextDown),
			PnL:   (nextDown - req.FinalPrice) * lotShares,
			Pct:   downPct,
		})
		down = nextDown
	}

	return resp
}
