package model

import (
	"fmt"
	"strings"
	"time"
)

// CompSource identifies where a comparable listing came from.
type CompSource string

const (
	CompSourceAuto   CompSource = "auto"
	CompSourceManual CompSource = "manual"
)

// ListingStatus is the market state of a comparable listing.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingSold     ListingStatus = "sold"
	ListingDelisted ListingStatus = "delisted"
)

// Valid reports whether s is a known listing status.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingSold, ListingDelisted:
		return true
	}
	return false
}

// Valid reports whether s is a known comp source.
func (s CompSource) Valid() bool {
	return s == CompSourceAuto || s == CompSourceManual
}

// Comp is a comparable market listing attached to a vehicle. Price, DOM and
// the other optional numbers are nil when the source did not supply them.
type Comp struct {
	ID            string        `json:"id"`
	VehicleID     string        `json:"vehicle_id"`
	Source        CompSource    `json:"source"`
	VIN           string        `json:"vin,omitempty"`
	Year          int           `json:"year,omitempty"`
	Make          string        `json:"make,omitempty"`
	Model         string        `json:"model,omitempty"`
	Trim          string        `json:"trim,omitempty"`
	Mileage       *int          `json:"mileage,omitempty"`
	Price         *float64      `json:"price,omitempty"`
	SoldPrice     *float64      `json:"sold_price,omitempty"`
	DaysOnMarket  *int          `json:"days_on_market,omitempty"`
	DistanceMiles *float64      `json:"distance_miles,omitempty"`
	DealerName    string        `json:"dealer_name,omitempty"`
	ListingStatus ListingStatus `json:"listing_status"`
	FoundAt       time.Time     `json:"found_at"`
}

// CompSummary aggregates a vehicle's comps. A new summary replaces the old one.
type CompSummary struct {
	VehicleID        string    `json:"vehicle_id"`
	AutoCount        int       `json:"auto_count"`
	ManualCount      int       `json:"manual_count"`
	MedianPrice      *float64  `json:"median_price"`
	MeanPrice        *float64  `json:"mean_price"`
	LowPrice         *float64  `json:"low_price"`
	HighPrice        *float64  `json:"high_price"`
	MedianDaysToSale *float64  `json:"median_days_to_sale"`
	SupplyCount      int       `json:"supply_count"`
	DemandScore      float64   `json:"demand_score"`
	SupplyVsDemand   string    `json:"supply_vs_demand"`
	DiscrepancyFlag  bool      `json:"discrepancy_flag"`
	DiscrepancyNote  string    `json:"discrepancy_note,omitempty"`
	WeightedSource   string    `json:"weighted_source,omitempty"`
	WeightReason     string    `json:"weight_reason,omitempty"`
	ComputedAt       time.Time `json:"computed_at"`
}

// CompCount is the number of comps across both sources.
func (s *CompSummary) CompCount() int {
	return s.AutoCount + s.ManualCount
}

func formatLabel(year int, parts ...string) string {
	fields := make([]string, 0, len(parts)+1)
	if year > 0 {
		fields = append(fields, fmt.Sprintf("%d", year))
	}
	for _, p := range parts {
		if p != "" {
			fields = append(fields, p)
		}
	}
	return strings.Join(fields, " ")
}
