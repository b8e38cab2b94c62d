// Package waterfall simulates scheduled price-reduction plans.
package waterfall

import (
	"fmt"
	"sort"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
)

const (
	wholesaleSuperior = "Wholesale exit superior"
	continueRetail    = "Continue retail"
)

// Planner generates waterfall plans with the given model constants.
type Planner struct {
	params engine.Params
}

// NewPlanner creates a Planner.
func NewPlanner(p engine.Params) *Planner {
	return &Planner{params: p}
}

// Plan simulates rules against v in trigger-day order. Each cut is a
// percentage of the original list price, applied to the running price and
// floored at max(policy floor, total cost + rule margin). Steps that would
// not lower the price are skipped but keep their position number.
func (p *Planner) Plan(v *model.Vehicle, rules []model.WaterfallRule, policy model.FloorPolicy) model.WaterfallPlan {
	totalCost := v.TotalCost()
	dailyFP := v.DailyFloorplanCost(p.params.DefaultFloorplanAPR)
	wholesale := v.WholesaleExitPrice
	listPrice := v.ListPrice

	floor := totalCost
	if policy == model.FloorWholesale {
		floor = wholesale
	}

	sorted := make([]model.WaterfallRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TriggerDay < sorted[j].TriggerDay })

	steps := make([]model.WaterfallStep, 0, len(sorted))
	running := listPrice

	for i, rule := range sorted {
		triggerDay := rule.TriggerDay
		reduction := engine.Round(listPrice*(rule.ReductionPct/100), 0)
		newPrice := running - reduction

		effectiveFloor := max(floor, totalCost+rule.MinMarginFloor)
		if newPrice < effectiveFloor {
			newPrice = effectiveFloor
			reduction = running - newPrice
		}
		if reduction <= 0 {
			continue
		}

		lift := min(max(reduction*p.params.PriceSensitivity*0.4, 0.01), 0.20)

		stop := continueRetail
		netAtNewPrice := newPrice - totalCost - dailyFP*float64(triggerDay)
		if netAtNewPrice < wholesale-totalCost {
			stop = wholesaleSuperior
		}

		steps = append(steps, model.WaterfallStep{
			Step:                    i + 1,
			TriggerDay:              triggerDay,
			TriggerCondition:        fmt.Sprintf("Day %d in inventory reached", triggerDay),
			CurrentPrice:            engine.Round(running, 2),
			NewPrice:                engine.Round(newPrice, 2),
			DollarChange:            engine.Round(-reduction, 2),
			ExpectedProbabilityLift: engine.Round(lift, 4),
			ExpectedDaysSaved:       engine.Round(lift*25, 1),
			PriceFloor:              engine.Round(effectiveFloor, 2),
			StopCondition:           stop,
		})
		running = newPrice
	}

	return model.WaterfallPlan{
		VehicleID:          v.ID,
		CurrentPrice:       listPrice,
		TotalCost:          totalCost,
		WholesaleExitPrice: wholesale,
		Steps:              steps,
		Recommendation: fmt.Sprintf("Plan has %d price steps from %s down to %s. Floor: %s.",
			len(steps), engine.Dollars(listPrice), engine.Dollars(running), engine.Dollars(floor)),
	}
}

// FindStep returns the step numbered n.
func FindStep(plan model.WaterfallPlan, n int) (model.WaterfallStep, bool) {
	for _, s := range plan.Steps {
		if s.Step == n {
			return s, true
		}
	}
	return model.WaterfallStep{}, false
}

// ApplyReason is the audit text logged when a step is approved.
func ApplyReason(s model.WaterfallStep) string {
	return fmt.Sprintf("Waterfall step %d applied. Trigger: %s. Expected probability lift: %s.",
		s.Step, s.TriggerCondition, engine.Percent(s.ExpectedProbabilityLift, 1))
}
