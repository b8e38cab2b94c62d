package model

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// FloorPolicy selects the base price floor for a waterfall.
type FloorPolicy string

const (
	FloorTotalCost FloorPolicy = "total_cost"
	FloorWholesale FloorPolicy = "wholesale"
)

// Rule values used when a decoded rule omits the key.
const (
	DefaultRuleTriggerDay   = 30
	DefaultRuleReductionPct = 5.0
)

// WaterfallRule is one scheduled price cut. A zero reduction is a hold step
// and produces no plan step.
type WaterfallRule struct {
	TriggerDay     int     `json:"trigger_day" yaml:"trigger_day"`
	ReductionPct   float64 `json:"reduction_pct" yaml:"reduction_pct"`
	MinMarginFloor float64 `json:"min_margin_floor" yaml:"min_margin_floor"`
}

type plainRule WaterfallRule

func defaultRule() plainRule {
	return plainRule{TriggerDay: DefaultRuleTriggerDay, ReductionPct: DefaultRuleReductionPct}
}

// UnmarshalJSON fills omitted keys with the rule defaults. Explicit zeros are kept.
func (r *WaterfallRule) UnmarshalJSON(b []byte) error {
	p := defaultRule()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*r = WaterfallRule(p)
	return nil
}

// UnmarshalYAML is UnmarshalJSON for rule files.
func (r *WaterfallRule) UnmarshalYAML(n *yaml.Node) error {
	p := defaultRule()
	if err := n.Decode(&p); err != nil {
		return err
	}
	*r = WaterfallRule(p)
	return nil
}

// WaterfallSettings is a dealership's saved waterfall configuration.
type WaterfallSettings struct {
	DealershipID     string          `json:"dealership_id"`
	Rules            []WaterfallRule `json:"rules" yaml:"rules"`
	PriceFloorPolicy FloorPolicy     `json:"price_floor_policy" yaml:"price_floor_policy"`
	AutoMode         bool            `json:"auto_mode" yaml:"auto_mode"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// WaterfallStep is one simulated price cut.
type WaterfallStep struct {
	Step                    int     `json:"step"`
	TriggerDay              int     `json:"trigger_day"`
	TriggerCondition        string  `json:"trigger_condition"`
	CurrentPrice            float64 `json:"current_price"`
	NewPrice                float64 `json:"new_price"`
	DollarChange            float64 `json:"dollar_change"`
	ExpectedProbabilityLift float64 `json:"expected_probability_lift"`
	ExpectedDaysSaved       float64 `json:"expected_days_saved"`
	PriceFloor              float64 `json:"price_floor"`
	StopCondition           string  `json:"stop_condition"`
}

// WaterfallPlan is the ordered result of simulating a rule set on one vehicle.
type WaterfallPlan struct {
	VehicleID          string          `json:"vehicle_id"`
	CurrentPrice       float64         `json:"current_price"`
	TotalCost          float64         `json:"total_cost"`
	WholesaleExitPrice float64         `json:"wholesale_exit_price"`
	Steps              []WaterfallStep `json:"steps"`
	Recommendation     string          `json:"recommendation"`
}

// PriceEventType classifies a logged price or status change.
type PriceEventType string

const (
	EventWaterfallReduction PriceEventType = "waterfall_reduction"
	EventManualOverride     PriceEventType = "manual_override"
	EventStatusChange       PriceEventType = "status_change"
)

// PriceEvent is an audit record of a price or status change.
type PriceEvent struct {
	ID           string         `json:"id"`
	VehicleID    string         `json:"vehicle_id"`
	DealershipID string         `json:"dealership_id"`
	EventType    PriceEventType `json:"event_type"`
	OldPrice     float64        `json:"old_price"`
	NewPrice     float64        `json:"new_price"`
	Reason       string         `json:"reason"`
	TriggeredBy  string         `json:"triggered_by"`
	CreatedAt    time.Time      `json:"created_at"`
}
