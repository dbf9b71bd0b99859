package weather

import (
	"fmt"
	"strings"
)

// AggregateForecast reduces the first n entries of a time-ordered forecast to
// a Sample. Temperature and humidity are averaged; the condition is taken from
// the first entry because conditions are categorical.
func AggregateForecast(readings []Reading, n int) (Sample, error) {
	if n <= 0 {
		return Sample{}, fmt.Errorf("%w: invalid forecast window %d", ErrUnavailable, n)
	}
	if len(readings) < n {
		return Sample{}, fmt.Errorf("%w: forecast has %d entries, need %d", ErrUnavailable, len(readings), n)
	}

	var sumTemp, sumHumidity float64
	for _, r := range readings[:n] {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
	}

	return Sample{
		Temperature: sumTemp / float64(n),
		Humidity:    sumHumidity / float64(n),
		Condition:   normalizeCondition(readings[0].Description),
	}, nil
}

// SampleOf turns a single current-conditions reading into a Sample.
func SampleOf(r Reading) Sample {
	return Sample{
		Temperature: r.TemperatureC,
		Humidity:    r.HumidityPct,
		Condition:   normalizeCondition(r.Description),
	}
}

func normalizeCondition(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
