package waterfall

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/model"
)

// DefaultSettings returns the configured rules for a dealership that has not
// saved its own.
func DefaultSettings(dealershipID string, cfg config.WaterfallConfig) model.WaterfallSettings {
	rules := make([]model.WaterfallRule, 0, len(cfg.DefaultRules))
	for _, r := range cfg.DefaultRules {
		rules = append(rules, model.WaterfallRule{
			TriggerDay:     r.TriggerDay,
			ReductionPct:   r.ReductionPct,
			MinMarginFloor: r.MinMarginFloor,
		})
	}
	policy := model.FloorPolicy(cfg.PriceFloorPolicy)
	if policy == "" {
		policy = model.FloorTotalCost
	}
	return model.WaterfallSettings{
		DealershipID:     dealershipID,
		Rules:            rules,
		PriceFloorPolicy: policy,
	}
}

// Validate checks a settings payload before it is saved.
func Validate(s model.WaterfallSettings) error {
	var errs []string
	switch s.PriceFloorPolicy {
	case model.FloorTotalCost, model.FloorWholesale:
	default:
		errs = append(errs, "price_floor_policy must be total_cost or wholesale")
	}
	for i, r := range s.Rules {
		if r.TriggerDay < 0 {
			errs = append(errs, fmt.Sprintf("rules[%d].trigger_day must not be negative", i))
		}
		if r.ReductionPct < 0 || r.ReductionPct >= 100 {
			errs = append(errs, fmt.Sprintf("rules[%d].reduction_pct must be in [0, 100)", i))
		}
		if r.MinMarginFloor < 0 {
			errs = append(errs, fmt.Sprintf("rules[%d].min_margin_floor must not be negative", i))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("waterfall: invalid settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadRules decodes a YAML rule set. A missing policy defaults to total_cost.
func LoadRules(r io.Reader) (model.WaterfallSettings, error) {
	var s model.WaterfallSettings
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, eris.Wrap(err, "waterfall: decode rules")
	}
	if s.PriceFloorPolicy == "" {
		s.PriceFloorPolicy = model.FloorTotalCost
	}
	if err := Validate(s); err != nil {
		return s, err
	}
	return s, nil
}

// LoadRulesFile reads a YAML rule set from path.
func LoadRulesFile(path string) (model.WaterfallSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.WaterfallSettings{}, eris.Wrap(err, "waterfall: open rules file")
	}
	defer f.Close() //nolint:errcheck
	return LoadRules(f)
}
