package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
)

const (
	defaultCurveDays = 90
	maxCurveDays     = 180
)

// Curve is the leading slice of a report's daily curve.
type Curve struct {
	VehicleID string             `json:"vehicle_id"`
	Days      int                `json:"days"`
	Curve     []model.CurvePoint `json:"curve"`
}

// Analyze runs the decision engine for a vehicle and appends a new report.
func (s *Service) Analyze(ctx context.Context, dealershipID, vehicleID string) (*model.AnalysisReport, error) {
	unlock := s.lock(vehicleID)
	defer unlock()

	v, err := s.vehicle(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, v)
}

func (s *Service) analyze(ctx context.Context, v *model.Vehicle) (*model.AnalysisReport, error) {
	summary, err := optional(s.store.GetCompSummary(ctx, v.ID))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: load comp summary")
	}
	signals, err := optional(s.store.GetSignals(ctx, v.ID))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: load signals")
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(v, summary, signals)
	if err != nil {
		return nil, err
	}
	report.VehicleID = v.ID
	report.ComputedAt = s.now().UTC()
	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, eris.Wrap(err, "inventory: save report")
	}
	s.metrics.RecordAnalysis(report.AgingClass, time.Since(start))

	zap.L().Debug("inventory: vehicle analyzed",
		zap.String("vehicle_id", v.ID),
		zap.String("aging_class", string(report.AgingClass)),
		zap.Float64("p30", report.P30),
	)
	return report, nil
}

// AnalyzeAll analyzes every active vehicle of a dealership.
func (s *Service) AnalyzeAll(ctx context.Context, dealershipID string) (*BatchResult, error) {
	n, failed, err := s.forEachActive(ctx, dealershipID, "analyze", func(ctx context.Context, v model.Vehicle) error {
		unlock := s.lock(v.ID)
		defer unlock()
		_, err := s.analyze(ctx, &v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BatchResult{
		Message:   fmt.Sprintf("Analyzed %d active vehicles.", n),
		Processed: n,
		Failed:    failed,
	}, nil
}

// LatestReport returns the most recent analysis of a vehicle.
func (s *Service) LatestReport(ctx context.Context, dealershipID, vehicleID string) (*model.AnalysisReport, error) {
	if _, err := s.vehicle(ctx, dealershipID, vehicleID); err != nil {
		return nil, err
	}
	return s.store.LatestReport(ctx, vehicleID)
}

// Curve returns the first days points of the latest report's curve. days
// must be in [1, 180]; zero means 90.
func (s *Service) Curve(ctx context.Context, dealershipID, vehicleID string, days int) (*Curve, error) {
	if days == 0 {
		days = defaultCurveDays
	}
	if days < 1 || days > maxCurveDays {
		return nil, invalidf("days must be between 1 and %d", maxCurveDays)
	}

	report, err := s.LatestReport(ctx, dealershipID, vehicleID)
	if err != nil {
		return nil, err
	}
	if len(report.DailyCurve) == 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "inventory: no curve for %s", vehicleID)
	}
	curve := report.DailyCurve[:min(days, len(report.DailyCurve))]
	return &Curve{VehicleID: vehicleID, Days: len(curve), Curve: curve}, nil
}

// Insights returns one dashboard row per vehicle with the given status,
// oldest first, joined with each vehicle's latest report if any. An empty
// status means active.
func (s *Service) Insights(ctx context.Context, dealershipID string, status model.VehicleStatus) ([]model.Insight, error) {
	if status == "" {
		status = model.VehicleStatusActive
	}
	vehicles, err := s.ListVehicles(ctx, dealershipID, status)
	if err != nil {
		return nil, err
	}

	out := make([]model.Insight, 0, len(vehicles))
	for _, v := range vehicles {
		in := model.Insight{
			VehicleID:       v.ID,
			VIN:             v.VIN,
			Year:            v.Year,
			Make:            v.Make,
			Model:           v.Model,
			Trim:            v.Trim,
			Status:          v.Status,
			DaysInInventory: v.DaysInInventory,
			ListPrice:       v.ListPrice,
			AcquisitionCost: v.AcquisitionCost,
			ReconCost:       v.ReconCost,
		}
		r, err := optional(s.store.LatestReport(ctx, v.ID))
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: latest report for %s", v.ID)
		}
		if r != nil {
			in.P30 = &r.P30
			in.P60 = &r.P60
			in.P90 = &r.P90
			in.AgingClass = r.AgingClass
			in.DailyCarryCost = &r.DailyCarryCost
			in.InflectionDay = &r.InflectionDay
			in.PriceAction = r.PriceAction
			if len(r.ActionPlan) > 0 {
				in.OneLineAction = r.ActionPlan[0]
			}
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysInInventory > out[j].DaysInInventory })
	return out, nil
}
