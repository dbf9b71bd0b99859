package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-health-notifier/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

var errMalformed = errors.New("malformed payload")

// OpenWeatherProvider implements weather.ForecastProvider for OpenWeatherMap
// (current weather and the 5 day / 3 hour forecast).
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(opts Options) *OpenWeatherProvider {
	base := opts.BaseURL
	if base == "" {
		base = openWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		httpCfg: newHTTPConfig(opts),
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// statusCode is OpenWeather's "cod" field, which is a number on the current
// weather endpoint and a string on the forecast endpoint.
type statusCode string

func (s *statusCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = statusCode(strings.TrimSpace(str))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cod: %w", err)
	}
	*s = statusCode(n.String())
	return nil
}

// OK reports whether the status equals the success sentinel 200.
func (s statusCode) OK() bool {
	return s == "200"
}

type owMain struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

type owCondition struct {
	Description string `json:"description"`
}

type owCurrent struct {
	Cod     statusCode    `json:"cod"`
	Message string        `json:"message"`
	Dt      int64         `json:"dt"`
	Main    owMain        `json:"main"`
	Weather []owCondition `json:"weather"`
}

type owForecast struct {
	Cod     statusCode `json:"cod"`
	Message string     `json:"message"`
	List    []struct {
		Dt      int64         `json:"dt"`
		Main    owMain        `json:"main"`
		Weather []owCondition `json:"weather"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, location string) (weather.Reading, error) {
	var payload owCurrent
	if err := p.get(ctx, "/weather", location, &payload); err != nil {
		return weather.Reading{}, err
	}
	if !payload.Cod.OK() {
		return weather.Reading{}, providerStatusError(payload.Cod, payload.Message)
	}
	if payload.Main.Temp == nil {
		return weather.Reading{}, fmt.Errorf("%w: main.temp missing", errMalformed)
	}
	if len(payload.Weather) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: weather[0].description missing", errMalformed)
	}

	r := weather.Reading{
		ProviderName: p.name,
		Timestamp:    unixOrNow(payload.Dt),
		TemperatureC: *payload.Main.Temp,
		Description:  payload.Weather[0].Description,
	}
	// Humidity is not part of the current-conditions contract; absent means 0.
	if payload.Main.Humidity != nil {
		r.HumidityPct = *payload.Main.Humidity
	}
	return r, nil
}

// FetchForecast returns the 3-hourly forecast entries in provider order
// (time ascending). Only the first weather.ForecastWindow entries are
// validated since nothing past them is used.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, location string) ([]weather.Reading, error) {
	var payload owForecast
	if err := p.get(ctx, "/forecast", location, &payload); err != nil {
		return nil, err
	}
	if !payload.Cod.OK() {
		return nil, providerStatusError(payload.Cod, payload.Message)
	}
	if len(payload.List) < weather.ForecastWindow {
		return nil, fmt.Errorf("%w: forecast has %d entries, need %d", errMalformed, len(payload.List), weather.ForecastWindow)
	}

	readings := make([]weather.Reading, 0, weather.ForecastWindow)
	for i, item := range payload.List[:weather.ForecastWindow] {
		if item.Main.Temp == nil || item.Main.Humidity == nil {
			return nil, fmt.Errorf("%w: list[%d].main incomplete", errMalformed, i)
		}
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("%w: list[%d].weather empty", errMalformed, i)
		}
		readings = append(readings, weather.Reading{
			ProviderName: p.name,
			Timestamp:    unixOrNow(item.Dt),
			TemperatureC: *item.Main.Temp,
			HumidityPct:  *item.Main.Humidity,
			Description:  item.Weather[0].Description,
		})
	}
	return readings, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path, location string, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", location)
		values.Set("units", "metric")
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func providerStatusError(cod statusCode, message string) error {
	if message != "" {
		return fmt.Errorf("provider status %q: %s", string(cod), message)
	}
	return fmt.Errorf("provider status %q", string(cod))
}

func unixOrNow(sec int64) time.Time {
	if sec <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
