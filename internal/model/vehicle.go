package model

import (
	"time"
)

// VehicleStatus represents the lifecycle state of a unit in inventory.
type VehicleStatus string

const (
	VehicleStatusActive    VehicleStatus = "active"
	VehicleStatusSold      VehicleStatus = "sold"
	VehicleStatusWholesale VehicleStatus = "wholesale"
	VehicleStatusTraded    VehicleStatus = "traded"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusActive, VehicleStatusSold, VehicleStatusWholesale, VehicleStatusTraded:
		return true
	}
	return false
}

// Vehicle is a unit in a dealership's inventory with its dealer-entered
// financials. Zero APR and zero minimum margin mean "use the configured default".
type Vehicle struct {
	ID           string        `json:"id"`
	DealershipID string        `json:"dealership_id"`
	VIN          string        `json:"vin"`
	Status       VehicleStatus `json:"status"`

	// VIN-decoded identity
	Year      int    `json:"year,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Trim      string `json:"trim,omitempty"`
	BodyStyle string `json:"body_style,omitempty"`
	Engine    string `json:"engine,omitempty"`

	// Dealer financials
	AcquisitionCost     float64 `json:"acquisition_cost"`
	ReconCost           float64 `json:"recon_cost"`
	ListPrice           float64 `json:"list_price"`
	FloorplanRateAPR    float64 `json:"floorplan_rate_apr"`
	WholesaleExitPrice  float64 `json:"wholesale_exit_price"`
	MinAcceptableMargin float64 `json:"min_acceptable_margin"`
	Mileage             int     `json:"mileage"`

	// Tracking
	DateAcquired    *time.Time `json:"date_acquired,omitempty"`
	DaysInInventory int        `json:"days_in_inventory"`
	DateSold        *time.Time `json:"date_sold,omitempty"`
	SoldPrice       *float64   `json:"sold_price,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TotalCost is acquisition plus reconditioning cost.
func (v *Vehicle) TotalCost() float64 {
	return v.AcquisitionCost + v.ReconCost
}

// APR returns the floorplan rate, falling back to def when unset.
func (v *Vehicle) APR(def float64) float64 {
	if v.FloorplanRateAPR == 0 {
		return def
	}
	return v.FloorplanRateAPR
}

// DailyFloorplanCost is the interest accrued per day on the total cost.
func (v *Vehicle) DailyFloorplanCost(defaultAPR float64) float64 {
	return v.TotalCost() * (v.APR(defaultAPR) / 100) / 365
}

// MinMargin returns the minimum acceptable margin, falling back to def when unset.
func (v *Vehicle) MinMargin(def float64) float64 {
	if v.MinAcceptableMargin == 0 {
		return def
	}
	return v.MinAcceptableMargin
}

// Label is the year/make/model string used in summaries.
func (v *Vehicle) Label() string {
	return formatLabel(v.Year, v.Make, v.Model)
}

// RefreshDays recomputes DaysInInventory from DateAcquired for active units.
// It returns true when the value changed.
func (v *Vehicle) RefreshDays(now time.Time) bool {
	if v.DateAcquired == nil || v.Status != VehicleStatusActive {
		return false
	}
	days := DaysBetween(*v.DateAcquired, now)
	if days == v.DaysInInventory {
		return false
	}
	v.DaysInInventory = days
	return true
}

// DaysBetween counts whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// Signals holds engagement counts for a vehicle listing.
type Signals struct {
	VehicleID  string    `json:"vehicle_id"`
	ViewsTotal int       `json:"views_total"`
	ViewsLast7 int       `json:"views_last_7"`
	LeadsTotal int       `json:"leads_total"`
	LeadsLast7 int       `json:"leads_last_7"`
	TestDrives int       `json:"test_drives"`
	Notes      string    `json:"notes"`
	UpdatedAt  time.Time `json:"updated_at"`
}
