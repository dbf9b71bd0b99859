// Package notifier runs one notification pass over the user directory:
// gate each user on alert time and the daily flag, sample weather, assess
// risk, send the report and record the send. Users are processed one at a
// time and a failure for one user never affects the others.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/i474232898/weather-health-notifier/internal/alerts"
	"github.com/i474232898/weather-health-notifier/internal/mailer"
	"github.com/i474232898/weather-health-notifier/internal/observability"
	"github.com/i474232898/weather-health-notifier/internal/risk"
	"github.com/i474232898/weather-health-notifier/internal/weather"
)

// ErrRunInProgress is returned when Run is called while a pass is running.
var ErrRunInProgress = errors.New("notification run already in progress")

// Directory is the user store: one listing per run and one single-record
// update per successful dispatch.
type Directory interface {
	ListProfiles(ctx context.Context) ([]alerts.Profile, error)
	MarkSent(ctx context.Context, p alerts.Profile, date alerts.Date) error
}

// Sampler yields representative weather for a location.
type Sampler interface {
	Sample(ctx context.Context, location string) (weather.Sample, error)
}

// Sender delivers a formed message.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Options wires a Notifier. Clock, Logger, Metrics and OnComplete may be nil.
type Options struct {
	Directory Directory
	Sampler   Sampler
	Sender    Sender
	Mode      weather.Mode
	Clock     clockwork.Clock
	Logger    *zap.Logger
	Metrics   *observability.Metrics

	// OnComplete receives the summary of every pass that started.
	OnComplete func(Summary)
}

// Notifier drives notification passes.
type Notifier struct {
	dir      Directory
	sampler  Sampler
	sender   Sender
	mode     weather.Mode
	clock    clockwork.Clock
	log      *zap.Logger
	metrics  *observability.Metrics
	validate *validator.Validate
	done     func(Summary)

	running sync.Mutex
}

func New(opts Options) *Notifier {
	n := &Notifier{
		dir:      opts.Directory,
		sampler:  opts.Sampler,
		sender:   opts.Sender,
		mode:     opts.Mode,
		clock:    opts.Clock,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		validate: validator.New(),
		done:     opts.OnComplete,
	}
	if n.clock == nil {
		n.clock = clockwork.NewRealClock()
	}
	if n.log == nil {
		n.log = zap.NewNop()
	}
	if n.metrics == nil {
		n.metrics = observability.NewMetricsForTesting()
	}
	return n
}

// Run performs one pass. The returned error is non-nil only when the pass
// could not go through the user listing (directory failure or a cancelled
// context); per-user failures are reported in the Summary.
func (n *Notifier) Run(ctx context.Context) (Summary, error) {
	if !n.running.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer n.running.Unlock()

	started := n.clock.Now()
	now := alerts.MomentAt(started)
	sum := Summary{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Date:      now.Date.String(),
		Time:      now.Time.String(),
		Counts:    make(map[Outcome]int),
	}
	log := n.log.With(zap.String("run_id", sum.RunID))
	log.Info("run started", zap.String("date", sum.Date), zap.String("time", sum.Time))

	profiles, err := n.dir.ListProfiles(ctx)
	if err != nil {
		sum.Aborted = true
		log.Error("failed to fetch users", zap.Error(err))
		n.finish(&sum, log)
		return sum, fmt.Errorf("list profiles: %w", err)
	}
	if len(profiles) == 0 {
		log.Info("no users registered")
		n.finish(&sum, log)
		return sum, nil
	}

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			sum.Aborted = true
			log.Warn("run cancelled", zap.Int("remaining", len(profiles)-len(sum.Results)))
			n.finish(&sum, log)
			return sum, err
		}
		res := n.evaluate(ctx, log, now, p)
		sum.add(res)
		n.metrics.UsersTotal.WithLabelValues(string(res.Outcome)).Inc()
	}

	n.finish(&sum, log)
	return sum, nil
}

func (n *Notifier) finish(sum *Summary, log *zap.Logger) {
	sum.FinishedAt = n.clock.Now().UTC()

	result := "completed"
	if sum.Aborted {
		result = "aborted"
	}
	n.metrics.RunsTotal.WithLabelValues(result).Inc()
	n.metrics.RunDuration.Observe(sum.FinishedAt.Sub(sum.StartedAt).Seconds())
	n.metrics.LastRunTimestamp.Set(float64(sum.FinishedAt.Unix()))

	log.Info("run complete",
		zap.Bool("aborted", sum.Aborted),
		zap.Int("users", len(sum.Results)),
		zap.Int("sent", sum.Counts[OutcomeSent]),
		zap.Int("failed", sum.Counts[OutcomeFailed]),
	)
	if n.done != nil {
		n.done(*sum)
	}
}

// evaluate takes one user end to end. It returns a Result in every case.
func (n *Notifier) evaluate(ctx context.Context, log *zap.Logger, now alerts.Moment, p alerts.Profile) Result {
	key := p.Key()
	log = log.With(zap.String("user", key))

	fail := func(kind FailureKind, err error) Result {
		n.metrics.FailureTotal.WithLabelValues(string(kind)).Inc()
		log.Error("user evaluation failed", zap.String("kind", string(kind)), zap.Error(err))
		return Result{
			UserKey: key,
			Outcome: OutcomeFailed,
			Err:     &EvaluationError{Kind: kind, UserKey: key, Err: err},
		}
	}

	if p.ReadErr != nil {
		return fail(KindInvalidProfile, p.ReadErr)
	}
	if err := n.validate.Struct(p); err != nil {
		return fail(KindInvalidProfile, err)
	}

	decision, err := alerts.Evaluate(now, p)
	if err != nil {
		return fail(KindInvalidAlertTime, err)
	}
	switch decision {
	case alerts.AlreadySent:
		log.Info("skipping: already notified today")
		return Result{UserKey: key, Outcome: OutcomeAlreadySent}
	case alerts.NotYet:
		log.Debug("waiting: alert time not reached",
			zap.String("now", now.Time.String()),
			zap.String("alert_time", p.AlertTime),
		)
		return Result{UserKey: key, Outcome: OutcomeNotDue}
	}

	log.Info("triggering report", zap.String("location", p.Location), zap.String("alert_time", p.AlertTime))

	sample, err := n.sampler.Sample(ctx, p.Location)
	if err != nil {
		return fail(KindWeatherUnavailable, err)
	}

	assessment := risk.Assess(sample.Temperature, sample.Humidity, sample.Condition)
	msg := mailer.Compose(mailer.Report{
		Profile:    p,
		Date:       now.Date,
		Mode:       n.mode,
		Sample:     sample,
		Assessment: assessment,
	})

	if err := n.sender.Send(ctx, msg); err != nil {
		return fail(KindSendFailed, err)
	}

	// The sent date is recorded only after the transport accepted the mail.
	if err := n.dir.MarkSent(ctx, p, now.Date); err != nil {
		res := fail(KindMarkFailed, err)
		res.Assessment = &assessment
		return res
	}

	n.metrics.Dispatches.Inc()
	log.Info("report sent and user marked",
		zap.Int("score", assessment.Score),
		zap.Stringer("tier", assessment.Tier),
	)
	return Result{UserKey: key, Outcome: OutcomeSent, Assessment: &assessment}
}
