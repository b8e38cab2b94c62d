package inventory

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/inventory-cli/internal/comps"
	"github.com/sells-group/inventory-cli/internal/model"
)

// Comp refresh triggers, used as metric labels.
const (
	TriggerRefresh = "refresh"
	TriggerManual  = "manual"
	TriggerUpload  = "upload"
	TriggerBatch   = "batch"
)

// CompInput is a dealer-entered comparable listing.
type CompInput struct {
	Year          int                 `json:"year"`
	Make          string              `json:"make"`
	Model         string              `json:"model"`
	Trim          string              `json:"trim"`
	Mileage       *int                `json:"mileage"`
	Price         *float64            `json:"price"`
	SoldPrice     *float64            `json:"sold_price"`
	DaysOnMarket  *int                `json:"days_on_market"`
	DistanceMiles *float64            `json:"distance_miles"`
	DealerName    string              `json:"dealer_name"`
	ListingStatus model.ListingStatus `json:"listing_status"`
}

// CompResult is the outcome of a comp write: how many comps were stored and
// the rebuilt summary.
type CompResult struct {
	Message string             `json:"message"`
	Stored  int                `json:"stored"`
	Skipped int                `json:"skipped,omitempty"`
	Summary *model.CompSummary `json:"summary"`
}

// RefreshComps replaces a vehicle's automated comps and rebuilds its summary.
func (s *Service) RefreshComps(ctx context.Context, dealershipID, vehicleID string) (*CompResult, error) {
	return s.refreshComps(ctx, dealershipID, vehicleID, TriggerRefresh)
}

func (s *Service) refreshComps(ctx context.Context, dealershipID, vehicleID, trigger string) (*CompResult, error) {
	unlock := s.lock(vehicleID)
	defer unlock()

	v, err := s.vehicle(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	fetched, err := s.comps.Fetch(ctx, v)
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: fetch comps for %s", vehicleID)
	}
	now := s.now().UTC()
	for i := range fetched {
		fetched[i].VehicleID = vehicleID
		fetched[i].Source = model.CompSourceAuto
		fetched[i].FoundAt = now
	}
	if err := s.store.ReplaceComps(ctx, vehicleID, model.CompSourceAuto, fetched); err != nil {
		return nil, eris.Wrap(err, "inventory: replace auto comps")
	}

	summary, err := s.rebuildSummary(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCompRefresh(trigger, model.CompSourceAuto, len(fetched))
	return &CompResult{
		Message: fmt.Sprintf("Refreshed %d automated comps.", len(fetched)),
		Stored:  len(fetched),
		Summary: summary,
	}, nil
}

// AddManualComp stores one dealer-entered comp and rebuilds the summary.
func (s *Service) AddManualComp(ctx context.Context, dealershipID, vehicleID string, in CompInput) (*model.Comp, error) {
	unlock := s.lock(vehicleID)
	defer unlock()

	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	status := in.ListingStatus
	if status == "" {
		status = model.ListingActive
	}
	if !status.Valid() {
		return nil, invalidf("unknown listing_status %q", in.ListingStatus)
	}

	c := model.Comp{
		VehicleID:     vehicleID,
		Source:        model.CompSourceManual,
		Year:          in.Year,
		Make:          in.Make,
		Model:         in.Model,
		Trim:          in.Trim,
		Mileage:       in.Mileage,
		Price:         in.Price,
		SoldPrice:     in.SoldPrice,
		DaysOnMarket:  in.DaysOnMarket,
		DistanceMiles: in.DistanceMiles,
		DealerName:    in.DealerName,
		ListingStatus: status,
		FoundAt:       s.now().UTC(),
	}
	batch := []model.Comp{c}
	if err := s.store.AddComps(ctx, batch); err != nil {
		return nil, eris.Wrap(err, "inventory: add manual comp")
	}
	if _, err := s.rebuildSummary(ctx, vehicleID); err != nil {
		return nil, err
	}
	s.metrics.RecordCompRefresh(TriggerManual, model.CompSourceManual, 1)
	return &batch[0], nil
}

// UploadComps parses a CSV or XLSX file of manual comps, stores the valid rows
// and rebuilds the summary.
func (s *Service) UploadComps(ctx context.Context, dealershipID, vehicleID, filename string, r io.Reader) (*CompResult, error) {
	unlock := s.lock(vehicleID)
	defer unlock()

	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	res, err := comps.ParseUpload(ctx, r, filename, vehicleID)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}
	now := s.now().UTC()
	for i := range res.Comps {
		res.Comps[i].FoundAt = now
	}
	if err := s.store.AddComps(ctx, res.Comps); err != nil {
		return nil, eris.Wrap(err, "inventory: store uploaded comps")
	}

	summary, err := s.rebuildSummary(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCompRefresh(TriggerUpload, model.CompSourceManual, len(res.Comps))
	zap.L().Info("inventory: comps uploaded",
		zap.String("vehicle_id", vehicleID),
		zap.Int("stored", len(res.Comps)),
		zap.Int("skipped", res.Skipped),
	)
	return &CompResult{
		Message: fmt.Sprintf("Uploaded %d manual comps from CSV.", len(res.Comps)),
		Stored:  len(res.Comps),
		Skipped: res.Skipped,
		Summary: summary,
	}, nil
}

// ListComps returns a vehicle's comps. An empty source lists both.
func (s *Service) ListComps(ctx context.Context, dealershipID, vehicleID string, source model.CompSource) ([]model.Comp, error) {
	if source != "" && !source.Valid() {
		return nil, invalidf("unknown source %q", source)
	}
	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	out, err := s.store.ListComps(ctx, vehicleID, source)
	return out, eris.Wrap(err, "inventory: list comps")
}

// CompSummary returns the stored summary, or ErrNotFound if comps were never
// refreshed.
func (s *Service) CompSummary(ctx context.Context, dealershipID, vehicleID string) (*model.CompSummary, error) {
	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	return s.store.GetCompSummary(ctx, vehicleID)
}

func (s *Service) rebuildSummary(ctx context.Context, vehicleID string) (*model.CompSummary, error) {
	all, err := s.store.ListComps(ctx, vehicleID, "")
	if err != nil {
		return nil, eris.Wrap(err, "inventory: load comps")
	}
	var auto, manual []model.Comp
	for _, c := range all {
		if c.Source == model.CompSourceManual {
			manual = append(manual, c)
		} else {
			auto = append(auto, c)
		}
	}

	summary := comps.BuildSummary(auto, manual)
	summary.VehicleID = vehicleID
	summary.ComputedAt = s.now().UTC()
	if err := s.store.SaveCompSummary(ctx, &summary); err != nil {
		return nil, eris.Wrap(err, "inventory: save comp summary")
	}
	return &summary, nil
}

// BatchResult reports a fleet-wide operation. Per-vehicle failures are logged
// and counted; they do not abort the batch.
type BatchResult struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// RefreshAllComps refreshes automated comps for every active vehicle.
func (s *Service) RefreshAllComps(ctx context.Context, dealershipID string) (*BatchResult, error) {
	n, failed, err := s.forEachActive(ctx, dealershipID, "refresh comps", func(ctx context.Context, v model.Vehicle) error {
		_, err := s.refreshComps(ctx, dealershipID, v.ID, TriggerBatch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BatchResult{
		Message:   fmt.Sprintf("Refreshed comps for %d vehicles.", n),
		Processed: n,
		Failed:    failed,
	}, nil
}

// forEachActive runs fn over the dealership's active vehicles with bounded
// concurrency and returns how many succeeded and failed.
func (s *Service) forEachActive(ctx context.Context, dealershipID, op string, fn func(context.Context, model.Vehicle) error) (int, int, error) {
	vehicles, err := s.activeVehicles(ctx, dealershipID)
	if err != nil {
		return 0, 0, err
	}

	var ok, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(max(1, s.cfg.Batch.MaxConcurrentVehicles))
	for _, v := range vehicles {
		g.Go(func() error {
			if err := fn(ctx, v); err != nil {
				failed.Add(1)
				zap.L().Error("inventory: batch "+op+" failed",
					zap.String("vehicle_id", v.ID),
					zap.Error(err),
				)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	if err := ctx.Err(); err != nil {
		return int(ok.Load()), int(failed.Load()), eris.Wrap(err, "inventory: batch "+op)
	}
	return int(ok.Load()), int(failed.Load()), nil
}
