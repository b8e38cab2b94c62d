package monitoring

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/config"
)

// hourlySpec fires at the top of every hour; each dealership picks its own
// alarm hour, so the runner decides who is due.
const hourlySpec = "0 * * * *"

// AlarmRunner runs the alarms of every dealership due at the given local hour.
type AlarmRunner interface {
	RunDueAlarms(ctx context.Context, hour int) (int, error)
}

// Scheduler triggers the daily fleet alarm on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	runner AlarmRunner
	loc    *time.Location
	log    *zap.Logger
}

// NewScheduler creates a Scheduler in the configured timezone.
func NewScheduler(cfg config.AlarmConfig, runner AlarmRunner) (*Scheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: load timezone %q", cfg.Timezone)
		}
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		loc:    loc,
		log:    zap.L().With(zap.String("component", "monitoring.scheduler")),
	}, nil
}

// Start registers the hourly alarm job and starts the cron loop. Jobs run
// with ctx until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(hourlySpec, func() {
		s.tick(ctx, time.Now())
	})
	if err != nil {
		return eris.Wrap(err, "monitoring: register alarm job")
	}
	s.cron.Start()
	s.log.Info("alarm scheduler started",
		zap.String("schedule", hourlySpec),
		zap.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("alarm scheduler stopped")
}

// RunNow runs the alarms due at now's local hour outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, now time.Time) (int, error) {
	return s.runner.RunDueAlarms(ctx, now.In(s.loc).Hour())
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if ctx.Err() != nil {
		return
	}
	hour := now.In(s.loc).Hour()
	n, err := s.runner.RunDueAlarms(ctx, hour)
	if err != nil {
		s.log.Error("monitoring: scheduled alarm run failed", zap.Int("hour", hour), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("monitoring: scheduled alarms complete", zap.Int("hour", hour), zap.Int("dealerships", n))
	}
}
