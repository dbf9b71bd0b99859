package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	RunModeOnce     = "once"
	RunModeSchedule = "schedule"

	ProviderOpenWeather = "openweather"
	ProviderWeatherAPI  = "weatherapi"
)

// AppConfig is built once at startup and passed down explicitly.
type AppConfig struct {
	RunMode      string        `envconfig:"RUN_MODE" default:"once" validate:"oneof=once schedule"`
	ScheduleCron string        `envconfig:"SCHEDULE_CRON" default:"*/5 * * * *" validate:"required"`
	RunTimeout   time.Duration `envconfig:"RUN_TIMEOUT" default:"10m" validate:"gt=0"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	HTTPAddr     string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`

	DatabaseDriver      string `envconfig:"DATABASE_DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`
	DatabaseURL         string `envconfig:"DATABASE_URL" validate:"required"`
	DatabaseAutoMigrate bool   `envconfig:"DATABASE_AUTO_MIGRATE" default:"false"`

	WeatherMode        string        `envconfig:"WEATHER_MODE" default:"forecast" validate:"oneof=forecast instant"`
	WeatherProvider    string        `envconfig:"WEATHER_PROVIDER" default:"openweather" validate:"oneof=openweather weatherapi"`
	OpenWeatherAPIKey  string        `envconfig:"OPENWEATHER_API_KEY" validate:"required_if=WeatherProvider openweather"`
	OpenWeatherBaseURL string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	WeatherAPIKey      string        `envconfig:"WEATHERAPI_API_KEY" validate:"required_if=WeatherProvider weatherapi"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	ProviderMaxRetries int           `envconfig:"PROVIDER_MAX_RETRIES" default:"0" validate:"min=0,max=5"`

	SMTPHost  string `envconfig:"SMTP_HOST" default:"smtp.gmail.com" validate:"required,hostname"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587" validate:"min=1,max=65535"`
	EmailUser string `envconfig:"EMAIL_USER" validate:"required,email"`
	EmailPass string `envconfig:"EMAIL_PASS" validate:"required"`

	// Run history retention for the status API.
	HistorySize   int           `envconfig:"HISTORY_SIZE" default:"288" validate:"min=0"`
	HistoryMaxAge time.Duration `envconfig:"HISTORY_MAX_AGE" default:"24h" validate:"min=0"`
}

// Load reads an optional .env file, then the environment, and validates the
// result. Any error here is fatal for the caller.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.WeatherProvider == ProviderWeatherAPI && cfg.WeatherMode != "instant" {
		return nil, errors.New("invalid configuration: WEATHER_PROVIDER=weatherapi only supports WEATHER_MODE=instant")
	}
	return cfg, nil
}
