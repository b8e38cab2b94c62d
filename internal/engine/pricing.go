package engine

import (
	"fmt"
	"math"

	"github.com/sells-group/inventory-cli/internal/model"
)

// ElasticityResult is the elasticity bucket and the reason behind it.
type ElasticityResult struct {
	Elasticity model.Elasticity
	Reason     string
}

// Elasticity buckets price sensitivity from comp supply and demand. A nil or
// zero median yields medium with an insufficient-data reason.
func Elasticity(compMedian *float64, listPrice, demandScore float64, supplyCount int) ElasticityResult {
	if compMedian == nil || *compMedian == 0 {
		return ElasticityResult{
			Elasticity: model.ElasticityMedium,
			Reason:     "Insufficient comp data to assess elasticity precisely.",
		}
	}

	ratio := listPrice / *compMedian

	switch {
	case supplyCount > 15 && ratio > 1.03:
		return ElasticityResult{
			Elasticity: model.ElasticityHigh,
			Reason: fmt.Sprintf("High supply (%d comps) with price %s%% above median.",
				supplyCount, Number(Round((ratio-1)*100, 1))),
		}
	case supplyCount > 10 && ratio > 1.0:
		return ElasticityResult{
			Elasticity: model.ElasticityHigh,
			Reason:     fmt.Sprintf("Moderate supply (%d comps), priced above median.", supplyCount),
		}
	case supplyCount <= 5 && demandScore > 60:
		return ElasticityResult{
			Elasticity: model.ElasticityLow,
			Reason: fmt.Sprintf("Low supply (%d comps) with strong demand (score %s).",
				supplyCount, Number(demandScore)),
		}
	case demandScore > 70 && ratio < 1.02:
		return ElasticityResult{
			Elasticity: model.ElasticityLow,
			Reason:     fmt.Sprintf("Strong demand (score %s), competitively priced.", Number(demandScore)),
		}
	default:
		return ElasticityResult{
			Elasticity: model.ElasticityMedium,
			Reason: fmt.Sprintf("Moderate market conditions. Supply: %d, demand score: %s.",
				supplyCount, Number(demandScore)),
		}
	}
}

// PricingInput holds what the pricing recommender needs for one vehicle.
type PricingInput struct {
	ListPrice      float64
	CompMedian     *float64
	TotalCost      float64
	MinMargin      float64
	DemandScore    float64
	DaysHeld       int
	P30            float64
	DailyFloorplan float64
}

// PricingRecommendation is a price move with its expected effect.
type PricingRecommendation struct {
	Action      model.PriceAction
	Amount      float64
	LiftP       float64
	GrossImpact float64
}

func hold() PricingRecommendation {
	return PricingRecommendation{Action: model.PriceHold}
}

// RecommendPricing decides between hold, reduce and increase. Reduce is
// evaluated first and wins if both would apply.
func (p Params) RecommendPricing(in PricingInput) PricingRecommendation {
	if in.CompMedian == nil || *in.CompMedian == 0 {
		return hold()
	}
	median := *in.CompMedian
	priceVsMarket := in.ListPrice - median
	floor := in.TotalCost + in.MinMargin

	if (priceVsMarket > 0 && in.DaysHeld > 15) || (in.DaysHeld > 30 && in.P30 < 0.30) {
		var target float64
		switch {
		case in.DaysHeld > 60:
			target = min(median*0.97, median-500)
		case in.DaysHeld > 30:
			target = median
		default:
			target = median + priceVsMarket*0.5
		}
		target = max(target, floor)

		change := Round(in.ListPrice-target, 0)
		if change < 100 {
			return hold()
		}

		lift := clamp(change*p.PriceSensitivity*0.5, 0.01, 0.25)
		return PricingRecommendation{
			Action:      model.PriceReduce,
			Amount:      Round(change, 2),
			LiftP:       Round(lift, 4),
			GrossImpact: Round(lift*30*in.DailyFloorplan-change, 2),
		}
	}

	if priceVsMarket < -1000 && in.DemandScore > 65 && in.DaysHeld < 20 {
		increase := Round(min(math.Abs(priceVsMarket)*0.5, 2000), 0)
		lift := -0.02
		return PricingRecommendation{
			Action:      model.PriceIncrease,
			Amount:      Round(increase, 2),
			LiftP:       lift,
			GrossImpact: Round(increase+lift*30*in.DailyFloorplan, 2),
		}
	}

	return hold()
}
