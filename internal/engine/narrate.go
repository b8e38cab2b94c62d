package engine

import (
	"fmt"
	"strings"

	"github.com/sells-group/inventory-cli/internal/model"
)

const (
	maxActions  = 5
	minActions  = 3
	maxRisks    = 4
	maxTriggers = 3
)

// fillerActions pad a short plan up to minActions, in order.
var fillerActions = []string{
	"Review this vehicle in your next morning meeting — assign one person to own the exit.",
	"Verify vehicle is listed on all active channels with current pricing.",
	"Log every walk-in and call on this unit so the next analysis has fresh signals.",
}

// ActionInput is the context the action-plan rules read.
type ActionInput struct {
	Aging      model.AgingClass
	Pricing    PricingRecommendation
	Exit       model.ExitPath
	DaysHeld   int
	ViewsLast7 int
	LeadsLast7 int
	ListPrice  float64
	CompMedian *float64
}

// ActionPlan returns between three and five ranked actions.
func ActionPlan(in ActionInput) []string {
	var actions []string

	switch in.Pricing.Action {
	case model.PriceReduce:
		actions = append(actions, fmt.Sprintf(
			"Reduce price by %s this week to align with market and boost sell probability.", Dollars(in.Pricing.Amount)))
	case model.PriceIncrease:
		actions = append(actions, fmt.Sprintf(
			"Increase price by %s — demand supports a stronger position.", Dollars(in.Pricing.Amount)))
	}

	if in.ViewsLast7 < 20 {
		actions = append(actions, "Boost online visibility: refresh photos, update description, feature on homepage.")
	}
	if in.LeadsLast7 == 0 && in.DaysHeld > 14 {
		actions = append(actions, "Zero leads in 7 days — consider targeted promotion or social media push.")
	} else if in.LeadsLast7 > 0 && in.LeadsLast7 < 3 {
		actions = append(actions, "Follow up aggressively on existing leads — each one matters at this stage.")
	}

	switch in.Aging {
	case model.AgingDanger:
		actions = append(actions, "URGENT: This unit is bleeding cash daily. Make an exit decision within 48 hours.")
		if in.Exit != model.ExitRetail {
			actions = append(actions, fmt.Sprintf(
				"Prepare %s exit — retail window is closing.", strings.ReplaceAll(string(in.Exit), "_", " ")))
		}
	case model.AgingAtRisk:
		actions = append(actions, "Set a hard deadline: if no serious buyer interest in 10 days, escalate exit strategy.")
	}

	if in.CompMedian != nil && *in.CompMedian != 0 && in.ListPrice > *in.CompMedian*1.05 {
		ratio := in.ListPrice / *in.CompMedian
		pct := Round((ratio-1)*100, 1)
		actions = append(actions, fmt.Sprintf("You are %s%% above market median — buyers see this.", Number(pct)))
	}

	for _, pad := range fillerActions {
		if len(actions) >= minActions {
			break
		}
		actions = append(actions, pad)
	}

	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}

// RiskInput is the context the risk rules read.
type RiskInput struct {
	CompCount   int
	DemandScore float64
	DaysHeld    int
	P30         float64
	PriceAction model.PriceAction
}

// RiskAssessment holds risks, change triggers and overall confidence.
type RiskAssessment struct {
	Risks      []string
	Triggers   []string
	Confidence model.Confidence
}

// AssessRisk returns at most four risks and three triggers. A macro risk and
// a weekly re-run trigger are always included before truncation.
func AssessRisk(in RiskInput) RiskAssessment {
	var risks, triggers []string

	if in.CompCount < 5 {
		risks = append(risks, "Low comp volume — market pricing estimates may be unreliable.")
		triggers = append(triggers, "If 5+ new comps appear, re-run analysis for sharper pricing.")
	}
	if in.DaysHeld > 60 {
		risks = append(risks, fmt.Sprintf("Unit has aged %d days — buyer perception of staleness is real.", in.DaysHeld))
	}
	if in.DemandScore < 30 {
		risks = append(risks, "Demand score is weak — this segment may be softening.")
		triggers = append(triggers, "If demand score drops below 20, pivot to wholesale immediately.")
	}
	if in.P30 < 0.15 {
		risks = append(risks, "Very low 30-day sell probability — holding cost is likely exceeding expected return.")
	}
	if in.PriceAction == model.PriceReduce {
		risks = append(risks, "Price reduction recommended — if dealer resists, probability will continue declining.")
		triggers = append(triggers, "If no offers within 7 days of reduction, cut again or wholesale.")
	}

	risks = append(risks, "Market-wide inventory shifts or rate changes could alter this analysis.")
	triggers = append(triggers, "Re-run analysis weekly or after any comp refresh.")

	if len(risks) > maxRisks {
		risks = risks[:maxRisks]
	}
	if len(triggers) > maxTriggers {
		triggers = triggers[:maxTriggers]
	}

	return RiskAssessment{
		Risks:      risks,
		Triggers:   triggers,
		Confidence: confidence(in.CompCount, in.DemandScore),
	}
}

func confidence(compCount int, demand float64) model.Confidence {
	switch {
	case compCount >= 10 && demand > 40:
		return model.ConfidenceHigh
	case compCount >= 5:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
