package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-health-notifier/internal/notifier"
)

var (
	// ErrNotFound is returned when no run summary matches the request.
	ErrNotFound = errors.New("no runs recorded")
)

// RunHistory is a concurrency-safe in-memory record of recent run summaries,
// oldest first.
type RunHistory struct {
	mu sync.RWMutex

	runs []notifier.Summary

	// retention configuration
	maxHistory int           // max number of summaries kept
	maxAge     time.Duration // optional max age, measured from StartedAt

	clock clockwork.Clock
}

// NewRunHistory creates a RunHistory with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewRunHistory(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *RunHistory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RunHistory{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Save appends a summary and enforces retention.
func (h *RunHistory) Save(s notifier.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, s)

	// Enforce retention by count.
	if h.maxHistory > 0 && len(h.runs) > h.maxHistory {
		over := len(h.runs) - h.maxHistory
		h.runs = h.runs[over:]
	}

	// Enforce retention by age.
	if h.maxAge > 0 {
		cutoff := h.clock.Now().Add(-h.maxAge)
		i := 0
		for ; i < len(h.runs); i++ {
			if !h.runs[i].StartedAt.Before(cutoff) {
				break
			}
		}
		h.runs = h.runs[i:]
	}
}

// Latest returns the most recent summary.
func (h *RunHistory) Latest() (notifier.Summary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.runs) == 0 {
		return notifier.Summary{}, ErrNotFound
	}
	return h.runs[len(h.runs)-1], nil
}

// Range returns all summaries started between from and to (inclusive).
func (h *RunHistory) Range(from, to time.Time) ([]notifier.Summary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var result []notifier.Summary
	for _, s := range h.runs {
		if !s.StartedAt.Before(from) && !s.StartedAt.After(to) {
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
