package engine

import "github.com/sells-group/inventory-cli/internal/model"

// ClassifyAging buckets a vehicle by days held and 30-day sale probability.
// Healthy is checked first, so a unit past 60 days with p30 >= 0.20 is at_risk.
func ClassifyAging(daysInInventory int, p30 float64) model.AgingClass {
	switch {
	case daysInInventory <= 30 && p30 >= 0.35:
		return model.AgingHealthy
	case daysInInventory <= 60 || p30 >= 0.20:
		return model.AgingAtRisk
	default:
		return model.AgingDanger
	}
}

// InflectionInput holds the economics needed to find the inflection day.
type InflectionInput struct {
	Lambda             float64
	ListPrice          float64
	TotalCost          float64
	DailyFloorplan     float64
	WholesaleExitPrice float64
	DaysHeld           int
}

// InflectionDay returns the first day from today on which holding one more
// day is expected to earn less than it costs, or on which retail net falls
// below the wholesale alternative. When no day qualifies within the horizon
// the horizon itself is returned.
func (p Params) InflectionDay(in InflectionInput) int {
	potentialGross := in.ListPrice - in.TotalCost

	for d := 1; d <= p.InflectionHorizonDays; d++ {
		accumulated := in.DailyFloorplan * float64(in.DaysHeld+d)
		netRetail := potentialGross - accumulated
		evHold := DailySellProbability(in.Lambda, d) * netRetail
		wholesaleNet := in.WholesaleExitPrice - in.TotalCost - accumulated

		if evHold < in.DailyFloorplan || netRetail < wholesaleNet {
			return d
		}
	}
	return p.InflectionHorizonDays
}
