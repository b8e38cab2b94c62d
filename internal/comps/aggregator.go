// Package comps builds comp summaries and sources comparable listings.
package comps

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
)

const (
	discrepancyPct = 8.0

	demandUndersupplied = 75
	demandBalanced      = 50
	demandOversupplied  = 25
)

// BuildSummary aggregates auto and manual comps. Prices count only when set
// and non-zero; days on market count when set.
func BuildSummary(auto, manual []model.Comp) model.CompSummary {
	if len(auto)+len(manual) == 0 {
		return model.CompSummary{
			DemandScore:    demandBalanced,
			SupplyVsDemand: "unknown",
		}
	}

	all := make([]model.Comp, 0, len(auto)+len(manual))
	all = append(all, auto...)
	all = append(all, manual...)

	autoPrices := prices(auto)
	manualPrices := prices(manual)
	allPrices := prices(all)

	var dom []float64
	for _, c := range all {
		if c.DaysOnMarket != nil {
			dom = append(dom, float64(*c.DaysOnMarket))
		}
	}

	s := model.CompSummary{
		AutoCount:   len(auto),
		ManualCount: len(manual),
		SupplyCount: len(all),
	}

	if len(allPrices) > 0 {
		s.MedianPrice = rounded(median(allPrices), 2)
		s.MeanPrice = rounded(stat.Mean(allPrices, nil), 2)
		s.LowPrice = rounded(floats.Min(allPrices), 2)
		s.HighPrice = rounded(floats.Max(allPrices), 2)
	}
	if len(dom) > 0 {
		s.MedianDaysToSale = rounded(median(dom), 1)
	}

	var sold int
	for _, c := range all {
		if c.ListingStatus == model.ListingSold {
			sold++
		}
	}
	soldRatio := float64(sold) / float64(s.SupplyCount)

	switch {
	case soldRatio > 0.5 && s.SupplyCount < 15:
		s.DemandScore, s.SupplyVsDemand = demandUndersupplied, "undersupplied"
	case soldRatio < 0.2 || s.SupplyCount > 25:
		s.DemandScore, s.SupplyVsDemand = demandOversupplied, "oversupplied"
	default:
		s.DemandScore, s.SupplyVsDemand = demandBalanced, "balanced"
	}

	if len(autoPrices) > 0 && len(manualPrices) > 0 {
		checkDiscrepancy(&s, median(autoPrices), median(manualPrices))
	}
	return s
}

// checkDiscrepancy flags a summary whose source medians differ by more than
// 8% of the auto median and records which source to trust.
func checkDiscrepancy(s *model.CompSummary, autoMedian, manualMedian float64) {
	var diffPct float64
	if autoMedian != 0 {
		diffPct = math.Abs(autoMedian-manualMedian) / autoMedian * 100
	}
	if diffPct <= discrepancyPct {
		return
	}

	s.DiscrepancyFlag = true
	s.DiscrepancyNote = fmt.Sprintf("Auto comps median %s vs manual comps median %s (%.1f%% difference).",
		engine.Dollars(autoMedian), engine.Dollars(manualMedian), diffPct)

	switch {
	case s.AutoCount >= 8:
		s.WeightedSource = string(model.CompSourceAuto)
		s.WeightReason = fmt.Sprintf(
			"Auto data weighted more: %d comps vs %d manual. Larger sample with broader market coverage.",
			s.AutoCount, s.ManualCount)
	case s.ManualCount >= 5 && s.AutoCount < 5:
		s.WeightedSource = string(model.CompSourceManual)
		s.WeightReason = fmt.Sprintf(
			"Manual data weighted more: %d dealer-sourced comps vs only %d auto comps. Local knowledge prioritized.",
			s.ManualCount, s.AutoCount)
	default:
		s.WeightedSource = string(model.CompSourceAuto)
		s.WeightReason = "Default to automated comps for consistency. Verify manual comps are current."
	}
}

func prices(comps []model.Comp) []float64 {
	out := make([]float64, 0, len(comps))
	for _, c := range comps {
		if c.Price != nil && *c.Price != 0 {
			out = append(out, *c.Price)
		}
	}
	return out
}

// median averages the two middle values of an even-sized set.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// rounded returns nil for zero so a zero statistic reads as missing.
func rounded(v float64, places int32) *float64 {
	if v == 0 {
		return nil
	}
	r := engine.Round(v, places)
	return &r
}
