package model

import "time"

// AlarmSettings is a dealership's saved alarm configuration.
type AlarmSettings struct {
	DealershipID string   `json:"dealership_id"`
	Thresholds   []int    `json:"thresholds"`
	Enabled      bool     `json:"enabled"`
	EmailTargets []string `json:"email_targets"`
	AlarmHour    int      `json:"alarm_hour"`
}

// Burner is one vehicle's carry burn in an alarm.
type Burner struct {
	VehicleID  string  `json:"vehicle_id"`
	VIN        string  `json:"vin"`
	Year       int     `json:"year"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	DailyCost  float64 `json:"daily_cost"`
	Days       int     `json:"days"`
	TotalCarry float64 `json:"total_carry"`
	NetGross   float64 `json:"net_gross"`
}

// Crossing records a vehicle that just passed an aging threshold.
type Crossing struct {
	VehicleID string `json:"vehicle_id"`
	VIN       string `json:"vin"`
	Days      int    `json:"days"`
}

// UnderwaterVehicle is a unit whose net gross after carry is negative.
type UnderwaterVehicle struct {
	VehicleID string  `json:"vehicle_id"`
	VIN       string  `json:"vin"`
	Year      int     `json:"year"`
	Make      string  `json:"make"`
	Model     string  `json:"model"`
	NetGross  float64 `json:"net_gross"`
	Days      int     `json:"days"`
}

// ThresholdCrossings lists crossings for one threshold.
type ThresholdCrossings struct {
	Threshold int        `json:"threshold"`
	Vehicles  []Crossing `json:"vehicles"`
}

// AlarmReport is the fleet floorplan alarm for one dealership and date.
type AlarmReport struct {
	ID                 string               `json:"id"`
	DealershipID       string               `json:"dealership_id"`
	AlarmDate          time.Time            `json:"alarm_date"`
	TotalActiveUnits   int                  `json:"total_active_units"`
	TotalDailyBurn     float64              `json:"total_daily_burn"`
	ProjectedBurn30    float64              `json:"projected_burn_30"`
	ProjectedBurn60    float64              `json:"projected_burn_60"`
	TopBurners         []Burner             `json:"top_burners"`
	ThresholdCrossings []ThresholdCrossings `json:"threshold_crossings"`
	UnderwaterVehicles []UnderwaterVehicle  `json:"underwater_vehicles"`
	ExecutiveSummary   string               `json:"executive_summary"`
	CreatedAt          time.Time            `json:"created_at"`
}

// Crossings returns the crossings recorded for threshold t.
func (a *AlarmReport) Crossings(t int) []Crossing {
	for _, tc := range a.ThresholdCrossings {
		if tc.Threshold == t {
			return tc.Vehicles
		}
	}
	return nil
}
