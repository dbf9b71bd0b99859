package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
	// Embedded zoneinfo so the cron zone loads on hosts without tzdata.
	_ "time/tzdata"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-health-notifier/internal/notifier"
)

// ZoneName is the IANA zone cron expressions are evaluated in. It has the
// same fixed +05:30 offset as alerts.ReferenceZone; gocron needs a loadable
// name because it hands the zone to the cron parser as CRON_TZ.
const ZoneName = "Asia/Kolkata"

// Runner performs one notification pass.
type Runner interface {
	Run(ctx context.Context) (notifier.Summary, error)
}

// Scheduler runs notification passes on a cron expression evaluated in the
// reference zone. Passes never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	cron      string
	timeout   time.Duration
	log       *zap.Logger

	cancel context.CancelFunc
}

// New creates a new Scheduler. Each pass is bounded by timeout.
func New(cron string, timeout time.Duration, runner Runner, log *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(ZoneName)
	if err != nil {
		return nil, fmt.Errorf("load schedule zone: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		cron:      cron,
		timeout:   timeout,
		log:       log,
	}, nil
}

// Start schedules the pass and starts the underlying scheduler. Passes run
// under ctx and stop early once it is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	if _, err := s.scheduler.Cron(s.cron).Do(func() { s.runOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule %q: %w", s.cron, err)
	}
	s.cancel = cancel
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", zap.String("cron", s.cron), zap.Duration("run_timeout", s.timeout))
	return nil
}

func (s *Scheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.log.Debug("scheduler: running notification pass")
	if _, err := s.runner.Run(ctx); err != nil {
		if errors.Is(err, notifier.ErrRunInProgress) {
			s.log.Info("scheduler: previous pass still running, skipping")
			return
		}
		s.log.Error("scheduler: notification pass failed", zap.Error(err))
	}
}

// NextRun reports when the pass fires next. It is zero before Start.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop cancels any running pass and future ones.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
