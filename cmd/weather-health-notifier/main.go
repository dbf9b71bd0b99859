package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-health-notifier/internal/api/http"
	"github.com/i474232898/weather-health-notifier/internal/config"
	"github.com/i474232898/weather-health-notifier/internal/logger"
	"github.com/i474232898/weather-health-notifier/internal/mailer"
	"github.com/i474232898/weather-health-notifier/internal/notifier"
	"github.com/i474232898/weather-health-notifier/internal/observability"
	"github.com/i474232898/weather-health-notifier/internal/scheduler"
	"github.com/i474232898/weather-health-notifier/internal/store"
	"github.com/i474232898/weather-health-notifier/internal/weather"
	"github.com/i474232898/weather-health-notifier/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("notifier stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := store.Open(ctx, store.Config{
		Driver:      cfg.DatabaseDriver,
		URL:         cfg.DatabaseURL,
		AutoMigrate: cfg.DatabaseAutoMigrate,
	}, lg.Named("store"))
	if err != nil {
		return fmt.Errorf("open user directory: %w", err)
	}
	defer dir.Close()

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := newProvider(cfg, httpClient)
	if err != nil {
		return err
	}
	mode := weather.Mode(cfg.WeatherMode)
	agg, err := weather.NewAggregator(mode, provider, lg.Named("weather"))
	if err != nil {
		return err
	}
	agg.OnFetch(func(m weather.Mode, d time.Duration, err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.WeatherFetchDuration.WithLabelValues(string(m), outcome).Observe(d.Seconds())
	})

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		Timeout:  cfg.HTTPTimeout,
	}, lg.Named("mailer"))
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	history := store.NewRunHistory(cfg.HistorySize, cfg.HistoryMaxAge, clock)

	n := notifier.New(notifier.Options{
		Directory:  dir,
		Sampler:    agg,
		Sender:     sender,
		Mode:       mode,
		Clock:      clock,
		Logger:     lg.Named("notifier"),
		Metrics:    metrics,
		OnComplete: history.Save,
	})

	if cfg.RunMode == config.RunModeOnce {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		// Per-user failures are in the summary and logs; a pass that could
		// not list users has already been logged and is not a process error.
		_, _ = n.Run(runCtx)
		return nil
	}

	// Scheduler that periodically runs the pass.
	sched, err := scheduler.New(cfg.ScheduleCron, cfg.RunTimeout, n, lg.Named("scheduler"))
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-health-notifier",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.RunTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New(fiberlogger.Config{Output: os.Stdout}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Runner:     n,
		History:    history,
		Directory:  dir,
		RunTimeout: cfg.RunTimeout,
	})

	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			lg.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Warn("error during shutdown", zap.Error(err))
	}
	return nil
}

func newProvider(cfg *config.AppConfig, client *http.Client) (weather.Provider, error) {
	switch cfg.WeatherProvider {
	case config.ProviderOpenWeather:
		return providers.NewOpenWeatherProvider(providers.Options{
			Client:     client,
			APIKey:     cfg.OpenWeatherAPIKey,
			BaseURL:    cfg.OpenWeatherBaseURL,
			MaxRetries: cfg.ProviderMaxRetries,
		}), nil
	case config.ProviderWeatherAPI:
		return providers.NewWeatherAPIProvider(providers.Options{
			Client:     client,
			APIKey:     cfg.WeatherAPIKey,
			MaxRetries: cfg.ProviderMaxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.WeatherProvider)
	}
}
