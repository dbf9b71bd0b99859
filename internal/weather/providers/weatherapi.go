package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-health-notifier/internal/weather"
)

const weatherAPIBaseURL = "https://api.weatherapi.com/v1"

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com. It only
// serves current conditions, so it can back instant mode but not forecast mode.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(opts Options) *WeatherAPIProvider {
	base := opts.BaseURL
	if base == "" {
		base = weatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		httpCfg: newHTTPConfig(opts),
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, location string) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// "q" accepts a city name, "city,country" or "lat,lon".
		values.Set("q", location)

		u := fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			LocaltimeEpoch int64 `json:"localtime_epoch"`
		} `json:"location"`
		Current *struct {
			TempC     *float64 `json:"temp_c"`
			Humidity  float64  `json:"humidity"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if payload.Current == nil || payload.Current.TempC == nil {
		return weather.Reading{}, fmt.Errorf("%w: current.temp_c missing", errMalformed)
	}
	if payload.Current.Condition.Text == "" {
		return weather.Reading{}, fmt.Errorf("%w: current.condition.text missing", errMalformed)
	}

	return weather.Reading{
		ProviderName: p.name,
		Timestamp:    unixOrNow(payload.Location.LocaltimeEpoch),
		TemperatureC: *payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		Description:  payload.Current.Condition.Text,
	}, nil
}
