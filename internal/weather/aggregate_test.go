package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(temps []float64, humidity float64, firstDesc string) []Reading {
	out := make([]Reading, len(temps))
	for i, t := range temps {
		out[i] = Reading{TemperatureC: t, HumidityPct: humidity, Description: "overcast clouds"}
	}
	if len(out) > 0 {
		out[0].Description = firstDesc
	}
	return out
}

func TestAggregateForecast_MeanOfFirstEight(t *testing.T) {
	readings := series([]float64{30, 31, 32, 33, 34, 35, 36, 37}, 60, "Light Rain")

	s, err := AggregateForecast(readings, ForecastWindow)
	require.NoError(t, err)
	assert.InDelta(t, 33.5, s.Temperature, 1e-9)
	assert.InDelta(t, 60, s.Humidity, 1e-9)
	assert.Equal(t, "light rain", s.Condition)
}

func TestAggregateForecast_IgnoresEntriesPastWindow(t *testing.T) {
	readings := series([]float64{10, 10, 10, 10, 10, 10, 10, 10, 90, 90}, 50, "clear sky")
	readings[0].HumidityPct = 90
	readings[9].HumidityPct = 0

	s, err := AggregateForecast(readings, ForecastWindow)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Temperature, 1e-9)
	assert.InDelta(t, 55, s.Humidity, 1e-9)
	assert.Equal(t, "clear sky", s.Condition)
}

func TestAggregateForecast_TooFewEntries(t *testing.T) {
	readings := series([]float64{20, 21, 22, 23, 24, 25, 26}, 50, "clear sky")

	_, err := AggregateForecast(readings, ForecastWindow)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = AggregateForecast(nil, ForecastWindow)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSampleOf(t *testing.T) {
	s := SampleOf(Reading{TemperatureC: 28.4, HumidityPct: 77, Description: " Thunderstorm "})
	assert.Equal(t, Sample{Temperature: 28.4, Humidity: 77, Condition: "thunderstorm"}, s)
}
