package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-health-notifier/internal/notifier"
	"github.com/i474232898/weather-health-notifier/internal/risk"
	"github.com/i474232898/weather-health-notifier/internal/store"
)

var validate = validator.New()

// Runner triggers a notification pass.
type Runner interface {
	Run(ctx context.Context) (notifier.Summary, error)
}

// History serves recorded run summaries.
type History interface {
	Latest() (notifier.Summary, error)
	Range(from, to time.Time) ([]notifier.Summary, error)
}

// Pinger reports dependency reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the status API. Directory may be nil.
type Deps struct {
	Runner     Runner
	History    History
	Directory  Pinger
	RunTimeout time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Directory != nil {
			if err := d.Directory.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":    "degraded",
					"directory": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		sum, err := d.History.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read run history")
		}
		return c.JSON(sum)
	})

	v1.Get("/runs/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		runs, err := d.History.Range(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read run history")
		}

		return c.JSON(fiber.Map{
			"from": req.From,
			"to":   req.To,
			"runs": runs,
		})
	})

	v1.Post("/runs", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if d.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.RunTimeout)
			defer cancel()
		}

		sum, err := d.Runner.Run(ctx)
		if err != nil {
			if errors.Is(err, notifier.ErrRunInProgress) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   err.Error(),
				"summary": sum,
			})
		}
		return c.JSON(sum)
	})

	v1.Get("/risk", func(c *fiber.Ctx) error {
		var req riskQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(risk.Assess(req.Temperature, req.Humidity, req.Condition))
	})
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// riskQuery previews the risk engine for arbitrary readings.
type riskQuery struct {
	Temperature float64 `validate:"gte=-90,lte=60"`
	Humidity    float64 `validate:"gte=0,lte=100"`
	Condition   string  `validate:"max=128"`
}

func (r *riskQuery) bind(c *fiber.Ctx) error {
	tempStr := c.Query("temperature")
	humStr := c.Query("humidity")
	if tempStr == "" || humStr == "" {
		return errors.New("temperature and humidity query parameters are required")
	}

	temp, err := strconv.ParseFloat(tempStr, 64)
	if err != nil {
		return errors.New("temperature must be a number")
	}
	hum, err := strconv.ParseFloat(humStr, 64)
	if err != nil {
		return errors.New("humidity must be a number")
	}

	r.Temperature = temp
	r.Humidity = hum
	r.Condition = c.Query("condition")
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
