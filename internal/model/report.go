package model

import "time"

// AgingClass buckets a vehicle's staleness risk.
type AgingClass string

const (
	AgingHealthy AgingClass = "healthy"
	AgingAtRisk  AgingClass = "at_risk"
	AgingDanger  AgingClass = "danger"
)

// PriceAction is the recommended pricing move.
type PriceAction string

const (
	PriceHold     PriceAction = "hold"
	PriceReduce   PriceAction = "reduce"
	PriceIncrease PriceAction = "increase"
)

// Elasticity describes how sensitive sale probability is to price.
type Elasticity string

const (
	ElasticityLow    Elasticity = "low"
	ElasticityMedium Elasticity = "medium"
	ElasticityHigh   Elasticity = "high"
)

// ExitPath is a disposition channel for a unit.
type ExitPath string

const (
	ExitRetail           ExitPath = "retail"
	ExitWholesaleAuction ExitPath = "wholesale_auction"
	ExitDealerTrade      ExitPath = "dealer_trade"
)

// Confidence is the trust level of an analysis.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// CurvePoint is one day of the forward sale-probability curve. Probability
// counts from today; cost fields accrue from the acquisition date.
type CurvePoint struct {
	Day                       int     `json:"day"`
	DailySellProbability      float64 `json:"daily_sell_probability"`
	CumulativeSellProbability float64 `json:"cumulative_sell_probability"`
	FloorplanCostToDate       float64 `json:"floorplan_cost_to_date"`
	GrossErosionToDate        float64 `json:"gross_erosion_to_date"`
}

// AnalysisReport is one immutable analysis of a vehicle. New runs append new
// reports; existing reports are never modified.
type AnalysisReport struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id"`

	P30    float64 `json:"p30"`
	P60    float64 `json:"p60"`
	P90    float64 `json:"p90"`
	Lambda float64 `json:"lambda"`

	AgingClass    AgingClass `json:"aging_class"`
	InflectionDay int        `json:"inflection_day"`

	DailyCarryCost  float64 `json:"daily_carry_cost"`
	CarryCost30     float64 `json:"carry_cost_30"`
	CarryCost60     float64 `json:"carry_cost_60"`
	CarryCost90     float64 `json:"carry_cost_90"`
	MarginErosion30 float64 `json:"margin_erosion_30"`
	MarginErosion60 float64 `json:"margin_erosion_60"`
	MarginErosion90 float64 `json:"margin_erosion_90"`

	PriceAction            PriceAction `json:"price_action"`
	PriceChangeAmount      float64     `json:"price_change_amount"`
	PriceActionLiftP       float64     `json:"price_action_lift_p"`
	PriceActionGrossImpact float64     `json:"price_action_gross_impact"`
	PriceElasticity        Elasticity  `json:"price_elasticity"`
	ElasticityReason       string      `json:"elasticity_reason"`

	OptimalExit       ExitPath `json:"optimal_exit"`
	ExitExpectedGross float64  `json:"exit_expected_gross"`
	ExitExpectedDays  float64  `json:"exit_expected_days"`
	ExitReason        string   `json:"exit_reason"`

	ActionPlan     []string   `json:"action_plan"`
	Risks          []string   `json:"risks"`
	ChangeTriggers []string   `json:"change_triggers"`
	Confidence     Confidence `json:"confidence"`

	DailyCurve []CurvePoint `json:"daily_curve"`
	ComputedAt time.Time    `json:"computed_at"`
}

// Insight is the one-line dashboard view of a vehicle and its latest report.
type Insight struct {
	VehicleID       string        `json:"vehicle_id"`
	VIN             string        `json:"vin"`
	Year            int           `json:"year,omitempty"`
	Make            string        `json:"make,omitempty"`
	Model           string        `json:"model,omitempty"`
	Trim            string        `json:"trim,omitempty"`
	Status          VehicleStatus `json:"status"`
	DaysInInventory int           `json:"days_in_inventory"`
	ListPrice       float64       `json:"list_price"`
	AcquisitionCost float64       `json:"acquisition_cost"`
	ReconCost       float64       `json:"recon_cost"`
	P30             *float64      `json:"p30"`
	P60             *float64      `json:"p60"`
	P90             *float64      `json:"p90"`
	AgingClass      AgingClass    `json:"aging_class,omitempty"`
	DailyCarryCost  *float64      `json:"daily_carry_cost"`
	InflectionDay   *int          `json:"inflection_day"`
	PriceAction     PriceAction   `json:"price_action,omitempty"`
	OneLineAction   string        `json:"one_line_action,omitempty"`
}
