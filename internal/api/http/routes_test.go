package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-health-notifier/internal/notifier"
	"github.com/i474232898/weather-health-notifier/internal/store"
)

type stubRunner struct {
	sum notifier.Summary
	err error
}

func (r *stubRunner) Run(context.Context) (notifier.Summary, error) {
	return r.sum, r.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var started = time.Date(2026, time.October, 16, 3, 35, 0, 0, time.UTC)

func newApp(t *testing.T, d Deps) *fiber.App {
	t.Helper()
	if d.History == nil {
		d.History = store.NewRunHistory(10, 0, clockwork.NewFakeClockAt(started))
	}
	if d.Runner == nil {
		d.Runner = &stubRunner{}
	}
	app := fiber.New()
	RegisterRoutes(app, d)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	app := newApp(t, Deps{Directory: stubPinger{}})
	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/health").StatusCode)

	app = newApp(t, Deps{Directory: stubPinger{err: errors.New("connection refused")}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, app, http.MethodGet, "/health").StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t, Deps{})
	resp := do(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatestRun(t *testing.T) {
	history := store.NewRunHistory(10, 0, clockwork.NewFakeClockAt(started))
	app := newApp(t, Deps{History: history})

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, "/api/v1/runs/latest").StatusCode)

	history.Save(notifier.Summary{RunID: "run-1", StartedAt: started, Date: "2026-10-16", Time: "09:05"})
	resp := do(t, app, http.MethodGet, "/api/v1/runs/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body notifier.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, "09:05", body.Time)
}

func TestRunHistoryValidation(t *testing.T) {
	history := store.NewRunHistory(10, 0, clockwork.NewFakeClockAt(started))
	history.Save(notifier.Summary{RunID: "run-1", StartedAt: started})
	app := newApp(t, Deps{History: history})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing bounds", "/api/v1/runs/history", http.StatusBadRequest},
		{"bad format", "/api/v1/runs/history?from=yesterday&to=today", http.StatusBadRequest},
		{"to before from", "/api/v1/runs/history?from=2026-10-16T04:00:00Z&to=2026-10-16T03:00:00Z", http.StatusBadRequest},
		{"empty range", "/api/v1/runs/history?from=2026-10-17T00:00:00Z&to=2026-10-18T00:00:00Z", http.StatusNotFound},
		{"rfc3339", "/api/v1/runs/history?from=2026-10-16T03:00:00Z&to=2026-10-16T04:00:00Z", http.StatusOK},
		{"unix seconds", "/api/v1/runs/history?from=1792121400&to=1792125000", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, app, http.MethodGet, tt.target).StatusCode)
		})
	}
}

func TestTriggerRun(t *testing.T) {
	runner := &stubRunner{sum: notifier.Summary{RunID: "run-2"}}
	app := newApp(t, Deps{Runner: runner, RunTimeout: time.Minute})

	resp := do(t, app, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body notifier.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-2", body.RunID)

	runner.err = notifier.ErrRunInProgress
	assert.Equal(t, http.StatusConflict, do(t, app, http.MethodPost, "/api/v1/runs").StatusCode)

	runner.err = errors.New("list profiles: timeout")
	assert.Equal(t, http.StatusBadGateway, do(t, app, http.MethodPost, "/api/v1/runs").StatusCode)
}

func TestRiskPreview(t *testing.T) {
	app := newApp(t, Deps{})

	resp := do(t, app, http.MethodGet, "/api/v1/risk?temperature=40&humidity=80&condition=heavy%20storm")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Score  int      `json:"score"`
		Tier   string   `json:"tier"`
		Advice []string `json:"advice"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 100, body.Score)
	assert.Equal(t, "CRITICAL", body.Tier)
	assert.Len(t, body.Advice, 2)

	for _, target := range []string{
		"/api/v1/risk",
		"/api/v1/risk?temperature=hot&humidity=10",
		"/api/v1/risk?temperature=20&humidity=120",
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, target).StatusCode, target)
	}
}
