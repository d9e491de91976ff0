package services

import (
	"testing"

	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyLimitPct(t *testing.T) {
	assert.Equal(t, 0.35, DailyLimitPct(199))
	assert.Equal(t, 0.25, DailyLimitPct(200))
	assert.Equal(t, 0.25, DailyLimitPct(5000))
	assert.Equal(t, 0.20, DailyLimitPct(5001))
}

func TestClampScenarioDays(t *testing.T) {
	assert.Equal(t, models.DefaultScenarioDays, ClampScenarioDays(0))
	assert.Equal(t, 1, ClampScenarioDays(-4))
	assert.Equal(t, 7, ClampScenarioDays(7))
	assert.Equal(t, models.MaxScenarioDays, ClampScenarioDays(40))
}

func TestSimulateScenarioCompounds(t *testing.T) {
	resp := SimulateScenario(models.ScenarioRequest{FinalPrice: 635, Lots: 4, Days: 3})

	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, 3, resp.Days)
	assert.Equal(t, 254000.0, resp.Capital)
	require.Len(t, resp.ARA, 3)
	require.Len(t, resp.ARB, 3)

	// 635 → 793 → 991 → 1238
	assert.Equal(t, []int64{793, 991, 1238}, []int64{resp.ARA[0].Price, resp.ARA[1].Price, resp.ARA[2].Price})
	assert.Equal(t, 63200.0, resp.ARA[0].PnL)
	assert.Equal(t, 0.25, resp.ARA[0].Pct)

	// 635 → 476 → 357 → 267
	assert.Equal(t, []int64{476, 357, 267}, []int64{resp.ARB[0].Price, resp.ARB[1].Price, resp.ARB[2].Price})
	assert.Equal(t, -63600.0, resp.ARB[0].PnL)
}

func TestSimulateScenarioLowerLimitFloor(t *testing.T) {
	resp := SimulateScenario(models.ScenarioRequest{FinalPrice: 60, Lots: 1, Days: 2})

	assert.Equal(t, int64(50), resp.ARB[0].Price)
	assert.Equal(t, int64(50), resp.ARB[1].Price)
	assert.Equal(t, 0.35, resp.ARB[0].Pct)
}

func TestSimulateScenarioProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("lower-limit path never drops below the minimum tick and days stay in range", prop.ForAll(
		func(price float64, lots int64, days int) bool {
			resp := SimulateScenario(models.ScenarioRequest{FinalPrice: price, Lots: lots, Days: days})
			if resp.Days < 1 || resp.Days > models.MaxScenarioDays {
				return false
			}
			if len(resp.ARA) != resp.Days || len(resp.ARB) != resp.Days {
				return false
			}
			for _, step := range resp.ARB {
				if step.Price < MinTickPrice {
					return false
				}
			}
			for i := 1; i < len(resp.ARA); i++ {
				if resp.ARA[i].Price < resp.ARA[i-1].Price {
					return false
				}
			}
			return true
		},
		gen.Float64Range(50, 20000),
		gen.Int64Range(1, 1000),
		gen.IntRange(-5, 40),
	))

	properties.TestingRun(t)
}
