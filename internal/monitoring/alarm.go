// Package monitoring builds the daily fleet floorplan alarm, delivers it to a
// webhook and schedules it.
package monitoring

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
)

// DefaultThresholds are the aging milestones used when none are configured.
var DefaultThresholds = []int{30, 45, 60, 75}

const topBurnerCount = 3

// GenerateAlarm summarizes carry burn across a dealership's active vehicles.
// A vehicle crosses threshold t when its age is t or t+1 days, so a unit may
// count toward two adjacent thresholds on the same run. Thresholds are sorted
// and deduplicated; a repeated threshold is reported once.
func GenerateAlarm(vehicles []model.Vehicle, thresholds []int, dealershipID string, defaultAPR float64) model.AlarmReport {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	thresholds = slices.Clone(thresholds)
	slices.Sort(thresholds)
	thresholds = slices.Compact(thresholds)

	crossings := make([]model.ThresholdCrossings, len(thresholds))
	for i, t := range thresholds {
		crossings[i] = model.ThresholdCrossings{Threshold: t, Vehicles: []model.Crossing{}}
	}

	var totalBurn float64
	burners := make([]model.Burner, 0, len(vehicles))
	underwater := []model.UnderwaterVehicle{}

	for _, v := range vehicles {
		daily := v.DailyFloorplanCost(defaultAPR)
		days := v.DaysInInventory
		totalCarry := daily * float64(days)
		netGross := v.ListPrice - v.TotalCost() - totalCarry

		totalBurn += daily

		burners = append(burners, model.Burner{
			VehicleID:  v.ID,
			VIN:        v.VIN,
			Year:       v.Year,
			Make:       v.Make,
			Model:      v.Model,
			DailyCost:  engine.Round(daily, 2),
			Days:       days,
			TotalCarry: engine.Round(totalCarry, 2),
			NetGross:   engine.Round(netGross, 2),
		})

		for i, t := range thresholds {
			if days == t || (days > t && days <= t+1) {
				crossings[i].Vehicles = append(crossings[i].Vehicles, model.Crossing{
					VehicleID: v.ID,
					VIN:       v.VIN,
					Days:      days,
				})
			}
		}

		if netGross < 0 {
			underwater = append(underwater, model.UnderwaterVehicle{
				VehicleID: v.ID,
				VIN:       v.VIN,
				Year:      v.Year,
				Make:      v.Make,
				Model:     v.Model,
				NetGross:  engine.Round(netGross, 2),
				Days:      days,
			})
		}
	}

	sort.SliceStable(burners, func(i, j int) bool { return burners[i].DailyCost > burners[j].DailyCost })
	if len(burners) > topBurnerCount {
		burners = burners[:topBurnerCount]
	}

	report := model.AlarmReport{
		DealershipID:       dealershipID,
		TotalActiveUnits:   len(vehicles),
		TotalDailyBurn:     engine.Round(totalBurn, 2),
		ProjectedBurn30:    engine.Round(totalBurn*30, 2),
		ProjectedBurn60:    engine.Round(totalBurn*60, 2),
		TopBurners:         burners,
		ThresholdCrossings: crossings,
		UnderwaterVehicles: underwater,
	}
	report.ExecutiveSummary = executiveSummary(&report, totalBurn)
	return report
}

func executiveSummary(r *model.AlarmReport, totalBurn float64) string {
	parts := []string{
		fmt.Sprintf("%d active units. Total daily floorplan burn: %s.", r.TotalActiveUnits, engine.Cents(totalBurn)),
		fmt.Sprintf("Projected 30-day burn: %s. 60-day burn: %s.",
			engine.Dollars(r.ProjectedBurn30), engine.Dollars(r.ProjectedBurn60)),
	}
	if n := len(r.UnderwaterVehicles); n > 0 {
		parts = append(parts, fmt.Sprintf("⚠ %d vehicle(s) are underwater (negative net gross after carry).", n))
	}
	if len(r.TopBurners) > 0 {
		top := r.TopBurners[0]
		parts = append(parts, fmt.Sprintf("Top burner: %d %s %s ($%s/day, %d days).",
			top.Year, top.Make, top.Model, engine.Number(top.DailyCost), top.Days))
	}
	for _, tc := range r.ThresholdCrossings {
		if len(tc.Vehicles) > 0 {
			parts = append(parts, fmt.Sprintf("%d vehicle(s) just crossed the %d-day threshold.", len(tc.Vehicles), tc.Threshold))
		}
	}
	return strings.Join(parts, " ")
}
