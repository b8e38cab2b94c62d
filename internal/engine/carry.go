package engine

// CarryCosts projects floorplan carry from acquisition to 30/60/90 days out.
type CarryCosts struct {
	Daily float64
	At30  float64
	At60  float64
	At90  float64
}

// ComputeCarryCosts returns carry totals including days already held.
func ComputeCarryCosts(dailyFloorplan float64, daysHeld int) CarryCosts {
	at := func(n int) float64 { return Round(dailyFloorplan*float64(daysHeld+n), 2) }
	return CarryCosts{
		Daily: Round(dailyFloorplan, 2),
		At30:  at(30),
		At60:  at(60),
		At90:  at(90),
	}
}

// MarginErosion is the remaining gross at 30/60/90 more days of carry.
type MarginErosion struct {
	At30 float64
	At60 float64
	At90 float64
}

// ComputeMarginErosion subtracts future carry from today's gross after carry.
func ComputeMarginErosion(listPrice, totalCost, dailyFloorplan float64, daysHeld int) MarginErosion {
	current := listPrice - totalCost - dailyFloorplan*float64(daysHeld)
	return MarginErosion{
		At30: Round(current-dailyFloorplan*30, 2),
		At60: Round(current-dailyFloorplan*60, 2),
		At90: Round(current-dailyFloorplan*90, 2),
	}
}
