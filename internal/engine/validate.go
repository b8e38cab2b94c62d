package engine

import (
	"fmt"
	"math"

	"github.com/sells-group/inventory-cli/internal/model"
)

// ValidationError reports a vehicle field that cannot feed the model.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the numeric inputs of a vehicle before analysis.
func Validate(v *model.Vehicle) error {
	if v == nil {
		return &ValidationError{Field: "vehicle", Reason: "missing"}
	}

	money := []struct {
		field string
		value float64
	}{
		{"acquisition_cost", v.AcquisitionCost},
		{"recon_cost", v.ReconCost},
		{"list_price", v.ListPrice},
		{"floorplan_rate_apr", v.FloorplanRateAPR},
		{"wholesale_exit_price", v.WholesaleExitPrice},
		{"min_acceptable_margin", v.MinAcceptableMargin},
	}
	for _, m := range money {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return &ValidationError{Field: m.field, Reason: "not a finite number"}
		}
		if m.value < 0 {
			return &ValidationError{Field: m.field, Reason: "must not be negative"}
		}
	}

	if v.DaysInInventory < 0 {
		return &ValidationError{Field: "days_in_inventory", Reason: "must not be negative"}
	}
	return nil
}
