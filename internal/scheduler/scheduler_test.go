package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/weather-health-notifier/internal/alerts"
	"github.com/i474232898/weather-health-notifier/internal/notifier"
)

type stubRunner struct {
	err      error
	calls    int
	deadline time.Time
	ctxErr   error
}

func (r *stubRunner) Run(ctx context.Context) (notifier.Summary, error) {
	r.calls++
	r.deadline, _ = ctx.Deadline()
	r.ctxErr = ctx.Err()
	return notifier.Summary{}, r.err
}

func newScheduler(t *testing.T, cron string, timeout time.Duration, r Runner, log *zap.Logger) *Scheduler {
	t.Helper()
	s, err := New(cron, timeout, r, log)
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestStart_InvalidCron(t *testing.T) {
	s := newScheduler(t, "every five minutes", time.Minute, &stubRunner{}, zap.NewNop())

	require.Error(t, s.Start(context.Background()))
}

func TestStart_DefaultCron(t *testing.T) {
	s := newScheduler(t, "*/5 * * * *", time.Minute, &stubRunner{}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))

	next := s.NextRun()
	require.False(t, next.IsZero())
	local := next.In(alerts.ReferenceZone)
	assert.Zero(t, local.Minute()%5)
	assert.Zero(t, local.Second())
}

func TestZoneMatchesReferenceZone(t *testing.T) {
	loc, err := time.LoadLocation(ZoneName)
	require.NoError(t, err)

	at := time.Date(2026, time.October, 16, 3, 35, 0, 0, time.UTC)
	_, got := at.In(loc).Zone()
	_, want := at.In(alerts.ReferenceZone).Zone()
	assert.Equal(t, want, got)
}

func TestRunOnce_BoundsPass(t *testing.T) {
	r := &stubRunner{}
	s := newScheduler(t, "* * * * *", 30*time.Second, r, zap.NewNop())

	before := time.Now()
	s.runOnce(context.Background())

	assert.Equal(t, 1, r.calls)
	assert.WithinDuration(t, before.Add(30*time.Second), r.deadline, 5*time.Second)
}

func TestRunOnce_InheritsCancellation(t *testing.T) {
	r := &stubRunner{}
	s := newScheduler(t, "* * * * *", time.Minute, r, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runOnce(ctx)

	assert.ErrorIs(t, r.ctxErr, context.Canceled)
}

func TestRunOnce_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := &stubRunner{err: errors.New("list profiles: connection refused")}
	s := newScheduler(t, "* * * * *", time.Minute, r, zap.New(core))

	s.runOnce(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("scheduler: notification pass failed").Len())

	r.err = notifier.ErrRunInProgress
	s.runOnce(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("scheduler: previous pass still running, skipping").Len())
}
