// Package store persists vehicles, comps, analysis reports, alarms, settings
// and price events in SQLite or Postgres.
package store

import (
	"context"
	"errors"

	"github.com/sells-group/inventory-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// VehicleFilter narrows ListVehicles. Empty fields match everything.
type VehicleFilter struct {
	DealershipID string
	Status       model.VehicleStatus
	VIN          string
	Limit        int
}

// EventFilter narrows ListPriceEvents. Empty fields match everything.
type EventFilter struct {
	VehicleID    string
	DealershipID string
	Limit        int
}

const (
	defaultVehicleLimit = 1000
	defaultEventLimit   = 50
	defaultAlarmLimit   = 30
)

// Store defines the persistence interface for the inventory engine.
type Store interface {
	// Vehicles
	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *model.Vehicle) error
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error)

	// Signals
	GetSignals(ctx context.Context, vehicleID string) (*model.Signals, error)
	SaveSignals(ctx context.Context, s *model.Signals) error

	// Comps
	ReplaceComps(ctx context.Context, vehicleID string, source model.CompSource, comps []model.Comp) error
	AddComps(ctx context.Context, comps []model.Comp) error
	ListComps(ctx context.Context, vehicleID string, source model.CompSource) ([]model.Comp, error)
	GetCompSummary(ctx context.Context, vehicleID string) (*model.CompSummary, error)
	SaveCompSummary(ctx context.Context, s *model.CompSummary) error

	// Analysis reports are append-only.
	InsertReport(ctx context.Context, r *model.AnalysisReport) error
	LatestReport(ctx context.Context, vehicleID string) (*model.AnalysisReport, error)

	// Alarms
	InsertAlarm(ctx context.Context, a *model.AlarmReport) error
	ListAlarms(ctx context.Context, dealershipID string, limit int) ([]model.AlarmReport, error)
	GetAlarmSettings(ctx context.Context, dealershipID string) (*model.AlarmSettings, error)
	SaveAlarmSettings(ctx context.Context, s *model.AlarmSettings) error
	ListAlarmSettings(ctx context.Context) ([]model.AlarmSettings, error)

	// Waterfall
	GetWaterfallSettings(ctx context.Context, dealershipID string) (*model.WaterfallSettings, error)
	SaveWaterfallSettings(ctx context.Context, s *model.WaterfallSettings) error

	// Price events
	InsertPriceEvent(ctx context.Context, e *model.PriceEvent) error
	ListPriceEvents(ctx context.Context, filter EventFilter) ([]model.PriceEvent, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
