package engine

import (
	"math"

	"github.com/sells-group/inventory-cli/internal/model"
)

const (
	minLambda = 0.001
	maxLambda = 0.15
)

// HazardInput holds the market and engagement signals for one vehicle.
type HazardInput struct {
	MedianDaysToSale float64
	DemandScore      float64 // 0-100
	PriceVsMarket    float64 // list price minus comp median; negative = below market
	DaysHeld         int
	ViewsLast7       int
	LeadsLast7       int
}

// Lambda computes the daily hazard rate of sale. The result is always within
// [0.001, 0.15].
func (p Params) Lambda(in HazardInput) float64 {
	base := p.BaseLambda
	if in.MedianDaysToSale > 0 {
		base = math.Ln2 / in.MedianDaysToSale
	}

	// Demand 0..100 maps to 0.5..2.0.
	demandFactor := 0.5 + (in.DemandScore/100)*1.5

	priceFactor := clamp(1-in.PriceVsMarket*p.PriceSensitivity, 0.3, 2.5)

	signalBoost := 1.0
	if in.ViewsLast7 > 50 {
		signalBoost += 0.1
	}
	if in.ViewsLast7 > 100 {
		signalBoost += 0.1
	}
	if in.LeadsLast7 > 3 {
		signalBoost += 0.15
	}
	if in.LeadsLast7 > 8 {
		signalBoost += 0.15
	}

	agingPenalty := 1.0
	if in.DaysHeld > 30 {
		agingPenalty -= 0.05 * (float64(in.DaysHeld-30) / 30)
	}
	agingPenalty = clamp(agingPenalty, 0.4, 1.0)

	lam := base * demandFactor * priceFactor * signalBoost * agingPenalty
	if math.IsNaN(lam) {
		return minLambda
	}
	return clamp(lam, minLambda, maxLambda)
}

// CumulativeSellProbability is P(sold by day T) = 1 - e^(-lambda*T).
func CumulativeSellProbability(lambda float64, day int) float64 {
	return 1 - math.Exp(-lambda*float64(day))
}

// DailySellProbability is P(sold on day T) = lambda * e^(-lambda*T).
func DailySellProbability(lambda float64, day int) float64 {
	return lambda * math.Exp(-lambda*float64(day))
}

// Probabilities holds the 30/60/90-day cumulative sale probabilities.
type Probabilities struct {
	P30 float64
	P60 float64
	P90 float64
}

// ComputeProbabilities returns p30/p60/p90 rounded to four decimals.
func ComputeProbabilities(lambda float64) Probabilities {
	return Probabilities{
		P30: Round(CumulativeSellProbability(lambda, 30), 4),
		P60: Round(CumulativeSellProbability(lambda, 60), 4),
		P90: Round(CumulativeSellProbability(lambda, 90), 4),
	}
}

// DailyCurve returns one point per day from today for p.CurveDays days.
// Probabilities count from today while carry cost counts from acquisition,
// so day d carries dailyFloorplan * (daysHeld + d).
func (p Params) DailyCurve(lambda, dailyFloorplan float64, daysHeld int) []model.CurvePoint {
	curve := make([]model.CurvePoint, 0, p.CurveDays)
	for d := 1; d <= p.CurveDays; d++ {
		toDate := dailyFloorplan * float64(daysHeld+d)
		curve = append(curve, model.CurvePoint{
			Day:                       d,
			DailySellProbability:      Round(DailySellProbability(lambda, d), 5),
			CumulativeSellProbability: Round(CumulativeSellProbability(lambda, d), 4),
			FloorplanCostToDate:       Round(toDate, 2),
			// Gross erosion is the carry accumulated since acquisition.
			GrossErosionToDate: Round(toDate, 2),
		})
	}
	return curve
}
