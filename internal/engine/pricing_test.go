package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/inventory-cli/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestElasticity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		median *float64
		list   float64
		demand float64
		supply int
		want   model.Elasticity
		reason string
	}{
		{
			name: "no median", median: nil, list: 20000, demand: 50, supply: 10,
			want: model.ElasticityMedium, reason: "Insufficient comp data to assess elasticity precisely.",
		},
		{
			name: "zero median", median: ptr(0), list: 20000, demand: 50, supply: 10,
			want: model.ElasticityMedium, reason: "Insufficient comp data to assess elasticity precisely.",
		},
		{
			name: "high supply well above median", median: ptr(20000), list: 21000, demand: 50, supply: 16,
			want: model.ElasticityHigh, reason: "High supply (16 comps) with price 5.0% above median.",
		},
		{
			name: "moderate supply above median", median: ptr(20000), list: 20100, demand: 50, supply: 12,
			want: model.ElasticityHigh, reason: "Moderate supply (12 comps), priced above median.",
		},
		{
			name: "scarce with strong demand", median: ptr(20000), list: 22000, demand: 75, supply: 4,
			want: model.ElasticityLow, reason: "Low supply (4 comps) with strong demand (score 75.0).",
		},
		{
			name: "strong demand competitive price", median: ptr(20000), list: 20000, demand: 80, supply: 8,
			want: model.ElasticityLow, reason: "Strong demand (score 80.0), competitively priced.",
		},
		{
			name: "moderate market", median: ptr(20000), list: 20000, demand: 50, supply: 8,
			want: model.ElasticityMedium, reason: "Moderate market conditions. Supply: 8, demand score: 50.0.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Elasticity(tt.median, tt.list, tt.demand, tt.supply)
			assert.Equal(t, tt.want, got.Elasticity)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestRecommendPricingReduceAboveMarket(t *testing.T) {
	t.Parallel()

	// 20000 + 1000 cost, 6.5% APR, listed 1000 over a 24000 median at day 35.
	fp := 21000 * 0.065 / 365
	rec := DefaultParams().RecommendPricing(PricingInput{
		ListPrice: 25000, CompMedian: ptr(24000), TotalCost: 21000, MinMargin: 500,
		DemandScore: 50, DaysHeld: 35, P30: 0.25, DailyFloorplan: fp,
	})

	assert.Equal(t, model.PriceReduce, rec.Action)
	assert.Greater(t, rec.Amount, 0.0)
	assert.Equal(t, 1000.0, rec.Amount)
	assert.Equal(t, 0.25, rec.LiftP)
	assert.Equal(t, Round(0.25*30*fp-1000, 2), rec.GrossImpact)
}

func TestRecommendPricingTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		list   float64
		days   int
		p30    float64
		action model.PriceAction
		amount float64
	}{
		// Halfway to median when young.
		{"young above market", 26000, 20, 0.5, model.PriceReduce, 1000},
		// Straight to median after 30 days.
		{"aged above market", 26000, 45, 0.5, model.PriceReduce, 2000},
		// Below median after 60 days.
		{"stale above market", 26000, 70, 0.5, model.PriceReduce, 2720},
		// Low probability triggers a cut, but nothing is cut at or below target.
		{"at market but stuck", 24000, 45, 0.1, model.PriceHold, 0},
		{"below market and stuck", 23000, 70, 0.1, model.PriceHold, 0},
		{"stale and unlikely", 26000, 70, 0.1, model.PriceReduce, 2720},
		// Change under $100 falls back to hold.
		{"tiny change", 24150, 20, 0.5, model.PriceHold, 0},
		// Young, at market, likely to sell.
		{"at market", 24000, 10, 0.5, model.PriceHold, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := DefaultParams().RecommendPricing(PricingInput{
				ListPrice: tt.list, CompMedian: ptr(24000), TotalCost: 18000, MinMargin: 500,
				DemandScore: 50, DaysHeld: tt.days, P30: tt.p30, DailyFloorplan: 3,
			})
			assert.Equal(t, tt.action, rec.Action)
			assert.Equal(t, tt.amount, rec.Amount)
		})
	}
}

func TestRecommendPricingFloor(t *testing.T) {
	t.Parallel()

	rec := DefaultParams().RecommendPricing(PricingInput{
		ListPrice: 24500, CompMedian: ptr(22000), TotalCost: 23000, MinMargin: 500,
		DemandScore: 50, DaysHeld: 70, P30: 0.1, DailyFloorplan: 4,
	})
	assert.Equal(t, model.PriceReduce, rec.Action)
	assert.Equal(t, 1000.0, rec.Amount)
}

func TestRecommendPricingIncrease(t *testing.T) {
	t.Parallel()

	rec := DefaultParams().RecommendPricing(PricingInput{
		ListPrice: 20000, CompMedian: ptr(23000), TotalCost: 17000, MinMargin: 500,
		DemandScore: 70, DaysHeld: 10, P30: 0.6, DailyFloorplan: 3,
	})
	assert.Equal(t, model.PriceIncrease, rec.Action)
	assert.Equal(t, 1500.0, rec.Amount)
	assert.Equal(t, -0.02, rec.LiftP)
	assert.Equal(t, 1498.2, rec.GrossImpact)

	capped := DefaultParams().RecommendPricing(PricingInput{
		ListPrice: 20000, CompMedian: ptr(30000), TotalCost: 17000,
		DemandScore: 70, DaysHeld: 10, P30: 0.6, DailyFloorplan: 3,
	})
	assert.Equal(t, 2000.0, capped.Amount)
}

func TestRecommendPricingUsesPriceSensitivity(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.PriceSensitivity = 0.0001
	rec := p.RecommendPricing(PricingInput{
		ListPrice: 25000, CompMedian: ptr(24000), TotalCost: 21000, MinMargin: 500,
		DemandScore: 50, DaysHeld: 35, P30: 0.25, DailyFloorplan: 3,
	})

	assert.Equal(t, model.PriceReduce, rec.Action)
	assert.Equal(t, 1000.0, rec.Amount)
	assert.Equal(t, 0.05, rec.LiftP)
	assert.Equal(t, Round(0.05*30*3-1000, 2), rec.GrossImpact)
}

func TestRecommendPricingNoMedianHolds(t *testing.T) {
	t.Parallel()

	rec := DefaultParams().RecommendPricing(PricingInput{ListPrice: 30000, TotalCost: 20000, DaysHeld: 90, P30: 0.01})
	assert.Equal(t, PricingRecommendation{Action: model.PriceHold}, rec)
}
