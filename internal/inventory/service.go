// Package inventory orchestrates the vehicle registry, comps, analysis,
// alarms and pricing waterfall on top of the store and the pure engine.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/comps"
	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/metrics"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/monitoring"
	"github.com/sells-group/inventory-cli/internal/store"
	"github.com/sells-group/inventory-cli/internal/waterfall"
	"github.com/sells-group/inventory-cli/pkg/vpic"
)

// ErrDuplicateVIN is returned when an active vehicle with the same VIN
// already exists at the dealership.
var ErrDuplicateVIN = errors.New("inventory: duplicate active vin")

// InputError reports a request argument that cannot be served as given.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "inventory: " + e.Msg
}

func invalidf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInvalid reports whether err was caused by bad input rather than a
// failure of the service.
func IsInvalid(err error) bool {
	var ie *InputError
	var ve *engine.ValidationError
	return errors.As(err, &ie) || errors.As(err, &ve)
}

// Service is the inventory decision engine's application layer. It is safe
// for concurrent use; updates to one vehicle are serialized.
type Service struct {
	store    store.Store
	cfg      *config.Config
	analyzer *engine.Analyzer
	planner  *waterfall.Planner
	comps    comps.Source
	decoder  vpic.Client
	alerter  *monitoring.Alerter
	metrics  *metrics.Metrics
	now      func() time.Time

	locks sync.Map
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDecoder sets the VIN decoder.
func WithDecoder(d vpic.Client) Option {
	return func(s *Service) { s.decoder = d }
}

// WithCompSource sets the automated comp source.
func WithCompSource(src comps.Source) Option {
	return func(s *Service) { s.comps = src }
}

// WithAlerter sets the alarm webhook alerter.
func WithAlerter(a *monitoring.Alerter) Option {
	return func(s *Service) { s.alerter = a }
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service backed by st.
func New(st store.Store, cfg *config.Config, opts ...Option) (*Service, error) {
	params := engine.ParamsFromConfig(cfg.Engine)
	s := &Service{
		store:    st,
		cfg:      cfg,
		analyzer: engine.NewAnalyzer(params),
		planner:  waterfall.NewPlanner(params),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.comps == nil {
		src, err := comps.NewSource(cfg.Comps)
		if err != nil {
			return nil, eris.Wrap(err, "inventory: comp source")
		}
		s.comps = src
	}
	if s.decoder == nil {
		s.decoder = vpic.NewClient(vpicOptions(cfg.VPIC)...)
	}
	if s.alerter == nil {
		s.alerter = monitoring.NewAlerter(cfg.Alarm)
	}
	return s, nil
}

func vpicOptions(cfg config.VPICConfig) []vpic.Option {
	var opts []vpic.Option
	if cfg.BaseURL != "" {
		opts = append(opts, vpic.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSecs > 0 {
		opts = append(opts, vpic.WithTimeout(time.Duration(cfg.TimeoutSecs)*time.Second))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, vpic.WithRateLimit(cfg.RateLimit))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, vpic.WithMaxRetries(cfg.MaxRetries))
	}
	return opts
}

// Params returns the engine constants in use.
func (s *Service) Params() engine.Params {
	return s.analyzer.Params()
}

// DefaultDealership is the dealership used when a caller does not name one.
func (s *Service) DefaultDealership() string {
	return s.cfg.Dealership.DefaultID
}

// lock serializes writers to one vehicle.
func (s *Service) lock(vehicleID string) func() {
	m, _ := s.locks.LoadOrStore(vehicleID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// vehicle loads a vehicle owned by dealershipID and refreshes its age.
func (s *Service) vehicle(ctx context.Context, dealershipID, id string) (*model.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.DealershipID != dealershipID {
		return nil, eris.Wrapf(store.ErrNotFound, "inventory: vehicle %s", id)
	}
	s.refreshDays(ctx, v)
	return v, nil
}

// refreshDays recomputes days in inventory and persists the change. A
// failed write is logged; the in-memory value is still current.
func (s *Service) refreshDays(ctx context.Context, v *model.Vehicle) {
	if !v.RefreshDays(s.now()) {
		return
	}
	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		zap.L().Warn("inventory: persist days in inventory",
			zap.String("vehicle_id", v.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) activeVehicles(ctx context.Context, dealershipID string) ([]model.Vehicle, error) {
	vehicles, err := s.store.ListVehicles(ctx, store.VehicleFilter{
		DealershipID: dealershipID,
		Status:       model.VehicleStatusActive,
	})
	if err != nil {
		return nil, eris.Wrap(err, "inventory: list active vehicles")
	}
	for i := range vehicles {
		s.refreshDays(ctx, &vehicles[i])
	}
	return vehicles, nil
}

// optional maps ErrNotFound to a nil record.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
