package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
)

const triggeredByUser = "user"

// VehicleInput is the dealer-entered data for a new unit. Zero APR and zero
// minimum margin take the configured defaults; a nil DateAcquired means today.
type VehicleInput struct {
	VIN                 string     `json:"vin"`
	AcquisitionCost     float64    `json:"acquisition_cost"`
	ReconCost           float64    `json:"recon_cost"`
	ListPrice           float64    `json:"list_price"`
	FloorplanRateAPR    float64    `json:"floorplan_rate_apr"`
	WholesaleExitPrice  float64    `json:"wholesale_exit_price"`
	MinAcceptableMargin float64    `json:"min_acceptable_margin"`
	Mileage             int        `json:"mileage"`
	DateAcquired        *time.Time `json:"date_acquired"`
}

// VehicleUpdate is a partial update. Nil fields are left unchanged.
type VehicleUpdate struct {
	Year                *int                 `json:"year"`
	Make                *string              `json:"make"`
	Model               *string              `json:"model"`
	Trim                *string              `json:"trim"`
	BodyStyle           *string              `json:"body_style"`
	Engine              *string              `json:"engine"`
	AcquisitionCost     *float64             `json:"acquisition_cost"`
	ReconCost           *float64             `json:"recon_cost"`
	ListPrice           *float64             `json:"list_price"`
	FloorplanRateAPR    *float64             `json:"floorplan_rate_apr"`
	WholesaleExitPrice  *float64             `json:"wholesale_exit_price"`
	MinAcceptableMargin *float64             `json:"min_acceptable_margin"`
	Mileage             *int                 `json:"mileage"`
	DateAcquired        *time.Time           `json:"date_acquired"`
	Status              *model.VehicleStatus `json:"status"`
	DateSold            *time.Time           `json:"date_sold"`
	SoldPrice           *float64             `json:"sold_price"`
}

// SignalsUpdate is a partial update of engagement counts.
type SignalsUpdate struct {
	ViewsTotal *int    `json:"views_total"`
	ViewsLast7 *int    `json:"views_last_7"`
	LeadsTotal *int    `json:"leads_total"`
	LeadsLast7 *int    `json:"leads_last_7"`
	TestDrives *int    `json:"test_drives"`
	Notes      *string `json:"notes"`
}

// AddFromVIN decodes a VIN and registers the unit. A failed decode leaves the
// identity fields empty rather than rejecting the vehicle.
func (s *Service) AddFromVIN(ctx context.Context, dealershipID string, in VehicleInput) (*model.Vehicle, error) {
	vin := strings.ToUpper(strings.TrimSpace(in.VIN))
	if vin == "" {
		return nil, invalidf("vin is required")
	}

	existing, err := s.store.ListVehicles(ctx, store.VehicleFilter{
		DealershipID: dealershipID,
		Status:       model.VehicleStatusActive,
		VIN:          vin,
		Limit:        1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "inventory: check duplicate vin")
	}
	if len(existing) > 0 {
		return nil, eris.Wrapf(ErrDuplicateVIN, "Active vehicle with VIN %s already exists (id=%s).", vin, existing[0].ID)
	}

	now := s.now()
	acquired := now
	if in.DateAcquired != nil {
		acquired = *in.DateAcquired
	}
	apr := in.FloorplanRateAPR
	if apr == 0 {
		apr = s.Params().DefaultFloorplanAPR
	}
	margin := in.MinAcceptableMargin
	if margin == 0 {
		margin = s.Params().DefaultMinMargin
	}

	v := &model.Vehicle{
		DealershipID:        dealershipID,
		VIN:                 vin,
		Status:              model.VehicleStatusActive,
		AcquisitionCost:     in.AcquisitionCost,
		ReconCost:           in.ReconCost,
		ListPrice:           in.ListPrice,
		FloorplanRateAPR:    apr,
		WholesaleExitPrice:  in.WholesaleExitPrice,
		MinAcceptableMargin: margin,
		Mileage:             in.Mileage,
		DateAcquired:        &acquired,
	}
	v.DaysInInventory = model.DaysBetween(acquired, now)

	decoded, err := s.decoder.Decode(ctx, vin)
	if err != nil {
		zap.L().Warn("inventory: vin decode failed",
			zap.String("vin", vin),
			zap.Error(err),
		)
	} else {
		v.Year = decoded.Year
		v.Make = decoded.Make
		v.Model = decoded.Model
		v.Trim = decoded.Trim
		v.BodyStyle = decoded.BodyStyle
		v.Engine = decoded.Engine
	}

	if err := engine.Validate(v); err != nil {
		return nil, err
	}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return nil, eris.Wrap(err, "inventory: create vehicle")
	}
	if err := s.store.SaveSignals(ctx, &model.Signals{VehicleID: v.ID}); err != nil {
		return nil, eris.Wrap(err, "inventory: create signals")
	}

	zap.L().Info("inventory: vehicle added",
		zap.String("vehicle_id", v.ID),
		zap.String("vin", vin),
		zap.String("label", v.Label()),
	)
	return v, nil
}

// GetVehicle returns a vehicle with a current age.
func (s *Service) GetVehicle(ctx context.Context, dealershipID, id string) (*model.Vehicle, error) {
	return s.vehicle(ctx, dealershipID, id)
}

// ListVehicles returns a dealership's vehicles, oldest in stock first. An
// empty status lists every status.
func (s *Service) ListVehicles(ctx context.Context, dealershipID string, status model.VehicleStatus) ([]model.Vehicle, error) {
	if status != "" && !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}
	vehicles, err := s.store.ListVehicles(ctx, store.VehicleFilter{DealershipID: dealershipID, Status: status})
	if err != nil {
		return nil, eris.Wrap(err, "inventory: list vehicles")
	}
	for i := range vehicles {
		s.refreshDays(ctx, &vehicles[i])
	}
	sort.SliceStable(vehicles, func(i, j int) bool {
		return vehicles[i].DaysInInventory > vehicles[j].DaysInInventory
	})
	return vehicles, nil
}

// UpdateVehicle applies a partial update and logs price and status changes.
func (s *Service) UpdateVehicle(ctx context.Context, dealershipID, id string, u VehicleUpdate) (*model.Vehicle, error) {
	unlock := s.lock(id)
	defer unlock()

	v, err := s.vehicle(ctx, dealershipID, id)
	if err != nil {
		return nil, err
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, invalidf("unknown status %q", *u.Status)
	}

	oldPrice := v.ListPrice
	oldStatus := v.Status
	u.apply(v)
	if v.Status == model.VehicleStatusSold && oldStatus != model.VehicleStatusSold && v.DateSold == nil {
		today := s.now()
		v.DateSold = &today
	}
	v.RefreshDays(s.now())

	if err := engine.Validate(v); err != nil {
		return nil, err
	}
	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return nil, eris.Wrap(err, "inventory: update vehicle")
	}

	if u.ListPrice != nil && *u.ListPrice != oldPrice {
		s.logEvent(ctx, &model.PriceEvent{
			VehicleID:    v.ID,
			DealershipID: dealershipID,
			EventType:    model.EventManualOverride,
			OldPrice:     oldPrice,
			NewPrice:     *u.ListPrice,
			Reason:       "Manual price update by dealer.",
			TriggeredBy:  triggeredByUser,
		})
	}
	if u.Status != nil && *u.Status != oldStatus {
		s.logEvent(ctx, &model.PriceEvent{
			VehicleID:    v.ID,
			DealershipID: dealershipID,
			EventType:    model.EventStatusChange,
			OldPrice:     oldPrice,
			NewPrice:     v.ListPrice,
			Reason:       fmt.Sprintf("Status changed from %s to %s.", oldStatus, *u.Status),
			TriggeredBy:  triggeredByUser,
		})
	}
	return v, nil
}

func (u VehicleUpdate) apply(v *model.Vehicle) {
	setIf(&v.Year, u.Year)
	setIf(&v.Make, u.Make)
	setIf(&v.Model, u.Model)
	setIf(&v.Trim, u.Trim)
	setIf(&v.BodyStyle, u.BodyStyle)
	setIf(&v.Engine, u.Engine)
	setIf(&v.AcquisitionCost, u.AcquisitionCost)
	setIf(&v.ReconCost, u.ReconCost)
	setIf(&v.ListPrice, u.ListPrice)
	setIf(&v.FloorplanRateAPR, u.FloorplanRateAPR)
	setIf(&v.WholesaleExitPrice, u.WholesaleExitPrice)
	setIf(&v.MinAcceptableMargin, u.MinAcceptableMargin)
	setIf(&v.Mileage, u.Mileage)
	setIf(&v.Status, u.Status)
	if u.DateAcquired != nil {
		v.DateAcquired = u.DateAcquired
	}
	if u.DateSold != nil {
		v.DateSold = u.DateSold
	}
	if u.SoldPrice != nil {
		v.SoldPrice = u.SoldPrice
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// logEvent appends to the price audit trail. The vehicle change is already
// committed, so a failed write is logged rather than returned.
func (s *Service) logEvent(ctx context.Context, e *model.PriceEvent) {
	e.CreatedAt = s.now().UTC()
	if err := s.store.InsertPriceEvent(ctx, e); err != nil {
		zap.L().Error("inventory: log price event",
			zap.String("vehicle_id", e.VehicleID),
			zap.String("event_type", string(e.EventType)),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordPriceEvent(e.EventType)
}

// GetSignals returns engagement counts. A vehicle without a record gets an
// empty one.
func (s *Service) GetSignals(ctx context.Context, dealershipID, vehicleID string) (*model.Signals, error) {
	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	sig, err := optional(s.store.GetSignals(ctx, vehicleID))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: get signals")
	}
	if sig == nil {
		sig = &model.Signals{VehicleID: vehicleID}
	}
	return sig, nil
}

// UpdateSignals applies a partial update of engagement counts.
func (s *Service) UpdateSignals(ctx context.Context, dealershipID, vehicleID string, u SignalsUpdate) (*model.Signals, error) {
	unlock := s.lock(vehicleID)
	defer unlock()

	sig, err := s.GetSignals(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	for name, n := range map[string]*int{
		"views_total":  u.ViewsTotal,
		"views_last_7": u.ViewsLast7,
		"leads_total":  u.LeadsTotal,
		"leads_last_7": u.LeadsLast7,
		"test_drives":  u.TestDrives,
	} {
		if n != nil && *n < 0 {
			return nil, invalidf("%s must not be negative", name)
		}
	}

	setIf(&sig.ViewsTotal, u.ViewsTotal)
	setIf(&sig.ViewsLast7, u.ViewsLast7)
	setIf(&sig.LeadsTotal, u.LeadsTotal)
	setIf(&sig.LeadsLast7, u.LeadsLast7)
	setIf(&sig.TestDrives, u.TestDrives)
	setIf(&sig.Notes, u.Notes)

	if err := s.store.SaveSignals(ctx, sig); err != nil {
		return nil, eris.Wrap(err, "inventory: save signals")
	}
	return sig, nil
}
