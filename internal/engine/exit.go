package engine

import (
	"fmt"
	"strings"

	"github.com/sells-group/inventory-cli/internal/model"
)

const (
	wholesaleExitDays = 7
	tradeExitDays     = 14
	maxRetailDays     = 120
	fallbackRetail    = 90
)

// ExitInput holds the economics compared by the exit-path optimizer.
type ExitInput struct {
	ListPrice          float64
	TotalCost          float64
	WholesaleExitPrice float64
	DailyFloorplan     float64
	DaysHeld           int
	Lambda             float64
	P30                float64
	P60                float64
}

// ExitOption is one scored disposition channel.
type ExitOption struct {
	Path         model.ExitPath
	Net          float64
	RiskAdjusted float64
	ExpectedDays float64
}

// ExitRecommendation is the winning channel plus every option considered.
type ExitRecommendation struct {
	Path          model.ExitPath
	ExpectedGross float64
	ExpectedDays  float64
	Reason        string
	Options       []ExitOption
}

// RecommendExitPath scores retail, wholesale auction and dealer trade and
// picks the highest risk-adjusted value. Exact ties keep the earlier option
// in that order.
func RecommendExitPath(in ExitInput) ExitRecommendation {
	currentCarry := in.DailyFloorplan * float64(in.DaysHeld)

	retailDays := float64(fallbackRetail)
	if in.Lambda > 0 {
		retailDays = min(1/in.Lambda, maxRetailDays)
	}
	retailNet := in.ListPrice - in.TotalCost - currentCarry - in.DailyFloorplan*retailDays

	wholesaleNet := in.WholesaleExitPrice - in.TotalCost - currentCarry - in.DailyFloorplan*wholesaleExitDays
	tradeNet := in.WholesaleExitPrice*1.03 - in.TotalCost - currentCarry - in.DailyFloorplan*tradeExitDays

	options := []ExitOption{
		{Path: model.ExitRetail, Net: retailNet, RiskAdjusted: retailNet * in.P60, ExpectedDays: Round(retailDays, 0)},
		{Path: model.ExitWholesaleAuction, Net: wholesaleNet, RiskAdjusted: wholesaleNet * 0.95, ExpectedDays: wholesaleExitDays},
		{Path: model.ExitDealerTrade, Net: tradeNet, RiskAdjusted: tradeNet * 0.70, ExpectedDays: tradeExitDays},
	}

	best := options[0]
	for _, o := range options[1:] {
		if o.RiskAdjusted > best.RiskAdjusted {
			best = o
		}
	}

	return ExitRecommendation{
		Path:          best.Path,
		ExpectedGross: Round(best.RiskAdjusted, 2),
		ExpectedDays:  best.ExpectedDays,
		Reason:        exitReason(best, options[0].RiskAdjusted, options[1].RiskAdjusted, in),
		Options:       options,
	}
}

func exitReason(best ExitOption, retailRA, wholesaleRA float64, in ExitInput) string {
	var parts []string
	switch best.Path {
	case model.ExitRetail:
		parts = append(parts,
			fmt.Sprintf("Retail yields highest risk-adjusted return (%s).", Dollars(best.RiskAdjusted)),
			fmt.Sprintf("Expected %s days to sale with %s probability by day 60.",
				fmt.Sprintf("%.0f", best.ExpectedDays), Percent(in.P60, 0)),
		)
		if retailRA > wholesaleRA*1.3 {
			parts = append(parts, "Retail significantly outperforms wholesale on expected value.")
		}
	case model.ExitWholesaleAuction:
		parts = append(parts,
			fmt.Sprintf("Wholesale is the strongest exit at %s risk-adjusted.", Dollars(best.RiskAdjusted)),
			fmt.Sprintf("Retail probability too low (p30=%s) to justify continued holding cost.", Percent(in.P30, 0)),
			"Exit in ~7 days eliminates further floorplan bleed.",
		)
	case model.ExitDealerTrade:
		parts = append(parts,
			fmt.Sprintf("Dealer trade offers a slight premium over wholesale (%s).", Dollars(best.RiskAdjusted)),
			"Retail risk is elevated but wholesale feels premature.",
		)
	}
	return strings.Join(parts, " ")
}
