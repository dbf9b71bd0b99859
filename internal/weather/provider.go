package weather

import (
	"context"
)

// Provider abstracts a source of current conditions for a free-text location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, location string) (Reading, error)
}

// ForecastProvider is a Provider that can also return a forecast series,
// ordered by time ascending.
type ForecastProvider interface {
	Provider
	FetchForecast(ctx context.Context, location string) ([]Reading, error)
}
