package engine

import (
	"github.com/sells-group/inventory-cli/internal/model"
)

// Analyzer runs the full model for one vehicle. It holds no mutable state and
// is safe for concurrent use.
type Analyzer struct {
	params Params
}

// NewAnalyzer creates an Analyzer with the given model constants.
func NewAnalyzer(p Params) *Analyzer {
	return &Analyzer{params: p}
}

// Params returns the analyzer's model constants.
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze produces a report for v. summary and signals may be nil. The
// returned report has no ID or timestamp; callers assign those on save.
func (a *Analyzer) Analyze(v *model.Vehicle, summary *model.CompSummary, signals *model.Signals) (*model.AnalysisReport, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	p := a.params

	totalCost := v.TotalCost()
	dailyFP := v.DailyFloorplanCost(p.DefaultFloorplanAPR)
	days := v.DaysInInventory

	var (
		median     *float64
		medianDays = p.DefaultMedianDaysToSale
		demand     = p.DefaultDemandScore
		supply     int
		compCount  int
	)
	if summary != nil {
		if summary.MedianPrice != nil && *summary.MedianPrice != 0 {
			m := *summary.MedianPrice
			median = &m
		}
		if summary.MedianDaysToSale != nil && *summary.MedianDaysToSale != 0 {
			medianDays = *summary.MedianDaysToSale
		}
		demand = summary.DemandScore
		supply = summary.SupplyCount
		compCount = summary.CompCount()
	}

	var views7, leads7 int
	if signals != nil {
		views7 = signals.ViewsLast7
		leads7 = signals.LeadsLast7
	}

	var priceVsMarket float64
	if median != nil {
		priceVsMarket = v.ListPrice - *median
	}

	lam := p.Lambda(HazardInput{
		MedianDaysToSale: medianDays,
		DemandScore:      demand,
		PriceVsMarket:    priceVsMarket,
		DaysHeld:         days,
		ViewsLast7:       views7,
		LeadsLast7:       leads7,
	})
	probs := ComputeProbabilities(lam)

	aging := ClassifyAging(days, probs.P30)
	inflection := p.InflectionDay(InflectionInput{
		Lambda:             lam,
		ListPrice:          v.ListPrice,
		TotalCost:          totalCost,
		DailyFloorplan:     dailyFP,
		WholesaleExitPrice: v.WholesaleExitPrice,
		DaysHeld:           days,
	})

	carry := ComputeCarryCosts(dailyFP, days)
	erosion := ComputeMarginErosion(v.ListPrice, totalCost, dailyFP, days)

	elasticity := Elasticity(median, v.ListPrice, demand, supply)
	pricing := p.RecommendPricing(PricingInput{
		ListPrice:      v.ListPrice,
		CompMedian:     median,
		TotalCost:      totalCost,
		MinMargin:      v.MinMargin(p.DefaultMinMargin),
		DemandScore:    demand,
		DaysHeld:       days,
		P30:            probs.P30,
		DailyFloorplan: dailyFP,
	})

	exit := RecommendExitPath(ExitInput{
		ListPrice:          v.ListPrice,
		TotalCost:          totalCost,
		WholesaleExitPrice: v.WholesaleExitPrice,
		DailyFloorplan:     dailyFP,
		DaysHeld:           days,
		Lambda:             lam,
		P30:                probs.P30,
		P60:                probs.P60,
	})

	actions := ActionPlan(ActionInput{
		Aging:      aging,
		Pricing:    pricing,
		Exit:       exit.Path,
		DaysHeld:   days,
		ViewsLast7: views7,
		LeadsLast7: leads7,
		ListPrice:  v.ListPrice,
		CompMedian: median,
	})
	risk := AssessRisk(RiskInput{
		CompCount:   compCount,
		DemandScore: demand,
		DaysHeld:    days,
		P30:         probs.P30,
		PriceAction: pricing.Action,
	})

	return &model.AnalysisReport{
		VehicleID: v.ID,

		P30:    probs.P30,
		P60:    probs.P60,
		P90:    probs.P90,
		Lambda: Round(lam, 6),

		AgingClass:    aging,
		InflectionDay: inflection,

		DailyCarryCost:  carry.Daily,
		CarryCost30:     carry.At30,
		CarryCost60:     carry.At60,
		CarryCost90:     carry.At90,
		MarginErosion30: erosion.At30,
		MarginErosion60: erosion.At60,
		MarginErosion90: erosion.At90,

		PriceAction:            pricing.Action,
		PriceChangeAmount:      pricing.Amount,
		PriceActionLiftP:       pricing.LiftP,
		PriceActionGrossImpact: pricing.GrossImpact,
		PriceElasticity:        elasticity.Elasticity,
		ElasticityReason:       elasticity.Reason,

		OptimalExit:       exit.Path,
		ExitExpectedGross: exit.ExpectedGross,
		ExitExpectedDays:  exit.ExpectedDays,
		ExitReason:        exit.Reason,

		ActionPlan:     actions,
		Risks:          risk.Risks,
		ChangeTriggers: risk.Triggers,
		Confidence:     risk.Confidence,

		DailyCurve: p.DailyCurve(lam, dailyFP, days),
	}, nil
}
