package notifier

import (
	"fmt"
	"time"

	"github.com/i474232898/weather-health-notifier/internal/risk"
)

// Outcome is what happened to one user in a run.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeNotDue      Outcome = "not_due"
	OutcomeAlreadySent Outcome = "already_sent"
	OutcomeFailed      Outcome = "failed"
)

// FailureKind classifies a per-user recoverable failure.
type FailureKind string

const (
	KindInvalidProfile     FailureKind = "invalid_profile"
	KindInvalidAlertTime   FailureKind = "invalid_alert_time"
	KindWeatherUnavailable FailureKind = "weather_unavailable"
	KindSendFailed         FailureKind = "send_failed"
	// KindMarkFailed means the mail went out but the sent date could not be
	// recorded, so the user may get a second report later today.
	KindMarkFailed FailureKind = "mark_failed"
)

// EvaluationError is a per-user failure. It never stops the run.
type EvaluationError struct {
	Kind    FailureKind
	UserKey string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("user %s: %s: %v", e.UserKey, e.Kind, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Result is the per-user entry of a Summary.
type Result struct {
	UserKey    string           `json:"user"`
	Outcome    Outcome          `json:"outcome"`
	Assessment *risk.Assessment `json:"assessment,omitempty"`
	Err        error            `json:"-"`
	Error      string           `json:"error,omitempty"`
}

// Summary describes one pass over the directory.
type Summary struct {
	RunID      string          `json:"runId"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Date       string          `json:"date"`
	Time       string          `json:"time"`
	Aborted    bool            `json:"aborted"`
	Results    []Result        `json:"results"`
	Counts     map[Outcome]int `json:"counts"`
}

func (s *Summary) add(r Result) {
	if r.Err != nil {
		r.Error = r.Err.Error()
	}
	s.Results = append(s.Results, r)
	if s.Counts == nil {
		s.Counts = make(map[Outcome]int)
	}
	s.Counts[r.Outcome]++
}

// Failures returns the per-user errors of the run.
func (s Summary) Failures() []*EvaluationError {
	var out []*EvaluationError
	for _, r := range s.Results {
		if ee, ok := r.Err.(*EvaluationError); ok {
			out = append(out, ee)
		}
	}
	return out
}
