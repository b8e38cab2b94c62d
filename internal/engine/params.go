// Package engine implements the 30-60-90 inventory model: sale probability,
// aging, carry cost, pricing, exit path and narrative for a single vehicle.
package engine

import "github.com/sells-group/inventory-cli/internal/config"

// Params holds the model constants. Every function in this package is pure
// given its Params and inputs.
type Params struct {
	DefaultMedianDaysToSale float64
	DefaultDemandScore      float64
	DefaultFloorplanAPR     float64
	DefaultMinMargin        float64
	BaseLambda              float64
	PriceSensitivity        float64
	InflectionHorizonDays   int
	CurveDays               int
}

// DefaultParams returns the calibrated model constants.
func DefaultParams() Params {
	return Params{
		DefaultMedianDaysToSale: 45,
		DefaultDemandScore:      50,
		DefaultFloorplanAPR:     6.5,
		DefaultMinMargin:        500,
		BaseLambda:              0.035,
		PriceSensitivity:        0.0015,
		InflectionHorizonDays:   180,
		CurveDays:               90,
	}
}

// ParamsFromConfig builds Params from configuration, keeping defaults for
// unset values.
func ParamsFromConfig(cfg config.EngineConfig) Params {
	p := DefaultParams()
	if cfg.DefaultMedianDaysToSale > 0 {
		p.DefaultMedianDaysToSale = cfg.DefaultMedianDaysToSale
	}
	if cfg.DefaultDemandScore > 0 {
		p.DefaultDemandScore = cfg.DefaultDemandScore
	}
	if cfg.DefaultFloorplanAPR > 0 {
		p.DefaultFloorplanAPR = cfg.DefaultFloorplanAPR
	}
	if cfg.DefaultMinMargin > 0 {
		p.DefaultMinMargin = cfg.DefaultMinMargin
	}
	if cfg.BaseLambda > 0 {
		p.BaseLambda = cfg.BaseLambda
	}
	if cfg.PriceSensitivity > 0 {
		p.PriceSensitivity = cfg.PriceSensitivity
	}
	if cfg.InflectionHorizonDays > 0 {
		p.InflectionHorizonDays = cfg.InflectionHorizonDays
	}
	if cfg.CurveDays > 0 {
		p.CurveDays = cfg.CurveDays
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
