package inventory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/monitoring"
	"github.com/sells-group/inventory-cli/internal/store"
)

// Alarm triggers, used as metric labels.
const (
	AlarmManual    = "manual"
	AlarmScheduled = "scheduled"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// AlarmSettingsUpdate is a partial update of alarm settings.
type AlarmSettingsUpdate struct {
	Thresholds   *[]int    `json:"thresholds"`
	Enabled      *bool     `json:"enabled"`
	EmailTargets *[]string `json:"email_targets"`
	AlarmHour    *int      `json:"alarm_hour"`
}

// AlarmSettings returns a dealership's saved settings, or the configured
// defaults if it has none.
func (s *Service) AlarmSettings(ctx context.Context, dealershipID string) (*model.AlarmSettings, error) {
	saved, err := optional(s.store.GetAlarmSettings(ctx, dealershipID))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: get alarm settings")
	}
	if saved != nil {
		return saved, nil
	}
	return s.defaultAlarmSettings(dealershipID), nil
}

func (s *Service) defaultAlarmSettings(dealershipID string) *model.AlarmSettings {
	thresholds := s.cfg.Alarm.Thresholds
	if len(thresholds) == 0 {
		thresholds = monitoring.DefaultThresholds
	}
	return &model.AlarmSettings{
		DealershipID: dealershipID,
		Thresholds:   slices.Clone(thresholds),
		Enabled:      s.cfg.Alarm.Enabled,
		EmailTargets: []string{},
		AlarmHour:    s.cfg.Alarm.Hour,
	}
}

// UpdateAlarmSettings applies a partial update and saves the result.
func (s *Service) UpdateAlarmSettings(ctx context.Context, dealershipID string, u AlarmSettingsUpdate) (*model.AlarmSettings, error) {
	settings, err := s.AlarmSettings(ctx, dealershipID)
	if err != nil {
		return nil, err
	}
	if u.Thresholds != nil {
		for _, t := range *u.Thresholds {
			if t <= 0 {
				return nil, invalidf("thresholds must be positive day counts")
			}
		}
		settings.Thresholds = *u.Thresholds
	}
	if u.AlarmHour != nil {
		if *u.AlarmHour < 0 || *u.AlarmHour > 23 {
			return nil, invalidf("alarm_hour must be between 0 and 23")
		}
		settings.AlarmHour = *u.AlarmHour
	}
	setIf(&settings.Enabled, u.Enabled)
	setIf(&settings.EmailTargets, u.EmailTargets)

	if err := s.store.SaveAlarmSettings(ctx, settings); err != nil {
		return nil, eris.Wrap(err, "inventory: save alarm settings")
	}
	return settings, nil
}

// RunAlarm generates, stores and delivers today's floorplan alarm.
func (s *Service) RunAlarm(ctx context.Context, dealershipID, trigger string) (*model.AlarmReport, error) {
	settings, err := s.AlarmSettings(ctx, dealershipID)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.activeVehicles(ctx, dealershipID)
	if err != nil {
		return nil, err
	}

	report := monitoring.GenerateAlarm(vehicles, settings.Thresholds, dealershipID, s.Params().DefaultFloorplanAPR)
	now := s.now().UTC()
	report.AlarmDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	report.CreatedAt = now
	if err := s.store.InsertAlarm(ctx, &report); err != nil {
		return nil, eris.Wrap(err, "inventory: save alarm")
	}
	s.metrics.RecordAlarm(trigger, &report)

	sent := s.alerter.SendAlerts(ctx, s.alerter.Evaluate(&report, *settings))
	zap.L().Info("inventory: alarm generated",
		zap.String("dealership_id", dealershipID),
		zap.String("trigger", trigger),
		zap.Int("active_units", report.TotalActiveUnits),
		zap.Float64("daily_burn", report.TotalDailyBurn),
		zap.Int("alerts_sent", sent),
	)
	return &report, nil
}

// LatestAlarm returns the most recent alarm for a dealership.
func (s *Service) LatestAlarm(ctx context.Context, dealershipID string) (*model.AlarmReport, error) {
	alarms, err := s.AlarmHistory(ctx, dealershipID, 1)
	if err != nil {
		return nil, err
	}
	if len(alarms) == 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "inventory: no alarm for %s", dealershipID)
	}
	return &alarms[0], nil
}

// AlarmHistory returns up to limit alarms, newest first. limit must be in
// [1, 365]; zero means 30.
func (s *Service) AlarmHistory(ctx context.Context, dealershipID string, limit int) ([]model.AlarmReport, error) {
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit < 1 || limit > maxHistoryLimit {
		return nil, invalidf("limit must be between 1 and %d", maxHistoryLimit)
	}
	alarms, err := s.store.ListAlarms(ctx, dealershipID, limit)
	return alarms, eris.Wrap(err, "inventory: list alarms")
}

// RunDueAlarms runs the alarm for every enabled dealership whose alarm hour
// is hour. The default dealership is included even without saved settings.
// It returns how many alarms ran.
func (s *Service) RunDueAlarms(ctx context.Context, hour int) (int, error) {
	all, err := s.store.ListAlarmSettings(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "inventory: list alarm settings")
	}
	if def := s.DefaultDealership(); def != "" && !slices.ContainsFunc(all, func(a model.AlarmSettings) bool {
		return a.DealershipID == def
	}) {
		all = append(all, *s.defaultAlarmSettings(def))
	}

	var ran int
	var errs []error
	for _, settings := range all {
		if !settings.Enabled || settings.AlarmHour != hour {
			continue
		}
		if _, err := s.RunAlarm(ctx, settings.DealershipID, AlarmScheduled); err != nil {
			errs = append(errs, eris.Wrapf(err, "inventory: alarm for %s", settings.DealershipID))
			continue
		}
		ran++
	}
	return ran, errors.Join(errs...)
}
