package inventory

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
	"github.com/sells-group/inventory-cli/internal/waterfall"
)

const (
	triggeredByApproval = "user_approved"
	defaultEventLimit   = 50
	maxEventLimit       = 500
)

// WaterfallSettingsUpdate is a partial update of waterfall settings.
type WaterfallSettingsUpdate struct {
	Rules            *[]model.WaterfallRule `json:"rules"`
	PriceFloorPolicy *model.FloorPolicy     `json:"price_floor_policy"`
	AutoMode         *bool                  `json:"auto_mode"`
}

// WaterfallSettings returns a dealership's saved rules, or the configured
// defaults if it has none.
func (s *Service) WaterfallSettings(ctx context.Context, dealershipID string) (*model.WaterfallSettings, error) {
	saved, err := optional(s.store.GetWaterfallSettings(ctx, dealershipID))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: get waterfall settings")
	}
	if saved != nil {
		return saved, nil
	}
	def := waterfall.DefaultSettings(dealershipID, s.cfg.Waterfall)
	return &def, nil
}

// UpdateWaterfallSettings applies a partial update and saves the result.
func (s *Service) UpdateWaterfallSettings(ctx context.Context, dealershipID string, u WaterfallSettingsUpdate) (*model.WaterfallSettings, error) {
	settings, err := s.WaterfallSettings(ctx, dealershipID)
	if err != nil {
		return nil, err
	}
	setIf(&settings.Rules, u.Rules)
	setIf(&settings.PriceFloorPolicy, u.PriceFloorPolicy)
	setIf(&settings.AutoMode, u.AutoMode)
	return s.SaveWaterfallSettings(ctx, dealershipID, *settings)
}

// SaveWaterfallSettings replaces a dealership's waterfall settings.
func (s *Service) SaveWaterfallSettings(ctx context.Context, dealershipID string, settings model.WaterfallSettings) (*model.WaterfallSettings, error) {
	settings.DealershipID = dealershipID
	if err := waterfall.Validate(settings); err != nil {
		return nil, &InputError{Msg: err.Error()}
	}
	if err := s.store.SaveWaterfallSettings(ctx, &settings); err != nil {
		return nil, eris.Wrap(err, "inventory: save waterfall settings")
	}
	return &settings, nil
}

// PlanWaterfall builds the price-reduction schedule for a vehicle.
func (s *Service) PlanWaterfall(ctx context.Context, dealershipID, vehicleID string) (*model.WaterfallPlan, error) {
	v, err := s.vehicle(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.plan(ctx, v)
}

func (s *Service) plan(ctx context.Context, v *model.Vehicle) (*model.WaterfallPlan, error) {
	settings, err := s.WaterfallSettings(ctx, v.DealershipID)
	if err != nil {
		return nil, err
	}
	plan := s.planner.Plan(v, settings.Rules, settings.PriceFloorPolicy)
	return &plan, nil
}

// ApplyStep sets the vehicle's list price to the planned price of step and
// logs the reduction.
func (s *Service) ApplyStep(ctx context.Context, dealershipID, vehicleID string, step int) (*model.Vehicle, error) {
	if step < 1 {
		return nil, invalidf("step must be at least 1")
	}
	unlock := s.lock(vehicleID)
	defer unlock()

	v, err := s.vehicle(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(ctx, v)
	if err != nil {
		return nil, err
	}
	target, ok := waterfall.FindStep(*plan, step)
	if !ok {
		return nil, eris.Wrapf(store.ErrNotFound, "Step %d not found in waterfall plan.", step)
	}

	oldPrice := v.ListPrice
	v.ListPrice = target.NewPrice
	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return nil, eris.Wrap(err, "inventory: apply waterfall step")
	}
	s.logEvent(ctx, &model.PriceEvent{
		VehicleID:    v.ID,
		DealershipID: dealershipID,
		EventType:    model.EventWaterfallReduction,
		OldPrice:     oldPrice,
		NewPrice:     target.NewPrice,
		Reason:       waterfall.ApplyReason(target),
		TriggeredBy:  triggeredByApproval,
	})

	zap.L().Info("inventory: waterfall step applied",
		zap.String("vehicle_id", v.ID),
		zap.Int("step", step),
		zap.Float64("old_price", oldPrice),
		zap.Float64("new_price", target.NewPrice),
	)
	return v, nil
}

// VehiclePriceEvents returns a vehicle's price audit trail, newest first.
func (s *Service) VehiclePriceEvents(ctx context.Context, dealershipID, vehicleID string) ([]model.PriceEvent, error) {
	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	events, err := s.store.ListPriceEvents(ctx, store.EventFilter{
		VehicleID:    vehicleID,
		DealershipID: dealershipID,
		Limit:        maxEventLimit,
	})
	return events, eris.Wrap(err, "inventory: list vehicle price events")
}

// PriceEvents returns a dealership's recent price events, newest first.
// limit must be in [1, 500]; zero means 50.
func (s *Service) PriceEvents(ctx context.Context, dealershipID string, limit int) ([]model.PriceEvent, error) {
	if limit == 0 {
		limit = defaultEventLimit
	}
	if limit < 1 || limit > maxEventLimit {
		return nil, invalidf("limit must be between 1 and %d", maxEventLimit)
	}
	events, err := s.store.ListPriceEvents(ctx, store.EventFilter{DealershipID: dealershipID, Limit: limit})
	return events, eris.Wrap(err, "inventory: list price events")
}
