package weather

import (
	"errors"
	"time"
)

// ErrUnavailable marks every failure to produce a Sample for a location:
// transport errors, non-success provider status, malformed payloads and
// forecasts that are too short. It is fatal only to the current user.
var ErrUnavailable = errors.New("weather unavailable")

// Mode selects how a Sample is derived. One mode is used for a whole run.
type Mode string

const (
	ModeInstant  Mode = "instant"
	ModeForecast Mode = "forecast"
)

// ForecastWindow is the number of 3-hourly forecast entries averaged
// (a nominal 24-hour horizon).
const ForecastWindow = 8

// Reading is a single provider entry, either current conditions or one
// forecast step.
type Reading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  float64
	Description  string
}

// Sample holds the representative values the risk engine consumes.
type Sample struct {
	Temperature float64 `json:"temperatureC"`
	Humidity    float64 `json:"humidityPercent"`
	Condition   string  `json:"condition"` // lowercase
}
