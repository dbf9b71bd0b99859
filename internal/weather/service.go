package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Aggregator produces one Sample per location using the configured mode.
type Aggregator struct {
	mode     Mode
	provider Provider
	log      *zap.Logger

	// observe, when set, receives the duration of every provider call.
	observe func(mode Mode, d time.Duration, err error)
}

// NewAggregator creates an Aggregator. Forecast mode requires a
// ForecastProvider.
func NewAggregator(mode Mode, provider Provider, log *zap.Logger) (*Aggregator, error) {
	if provider == nil {
		return nil, errors.New("no weather provider configured")
	}
	switch mode {
	case ModeInstant:
	case ModeForecast:
		if _, ok := provider.(ForecastProvider); !ok {
			return nil, fmt.Errorf("provider %s does not support forecasts", provider.Name())
		}
	default:
		return nil, fmt.Errorf("unknown weather mode %q", mode)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{mode: mode, provider: provider, log: log}, nil
}

// OnFetch registers a hook called after each provider call.
func (a *Aggregator) OnFetch(fn func(mode Mode, d time.Duration, err error)) {
	a.observe = fn
}

// Mode reports the aggregation mode.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// Sample fetches and reduces weather for location. Any failure wraps
// ErrUnavailable.
func (a *Aggregator) Sample(ctx context.Context, location string) (Sample, error) {
	start := time.Now()
	s, err := a.sample(ctx, location)
	if a.observe != nil {
		a.observe(a.mode, time.Since(start), err)
	}
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %s: %v", ErrUnavailable, a.provider.Name(), err)
		}
		a.log.Debug("weather sample failed",
			zap.String("provider", a.provider.Name()),
			zap.String("mode", string(a.mode)),
			zap.String("location", location),
			zap.Error(err),
		)
		return Sample{}, err
	}
	return s, nil
}

func (a *Aggregator) sample(ctx context.Context, location string) (Sample, error) {
	if a.mode == ModeInstant {
		r, err := a.provider.Fetch(ctx, location)
		if err != nil {
			return Sample{}, err
		}
		return SampleOf(r), nil
	}

	readings, err := a.provider.(ForecastProvider).FetchForecast(ctx, location)
	if err != nil {
		return Sample{}, err
	}
	return AggregateForecast(readings, ForecastWindow)
}
