package httpapi

import (
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-ku/internal/weather"
)

// Options configures NewApp.
type Options struct {
	Logger *slog.Logger

	// Gatherer backs GET /metrics. Nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer

	// AccessLog enables the per-request log line.
	AccessLog bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp builds the Fiber app with middleware, error handling and all routes.
func NewApp(service *weather.Service, opts Options) *fiber.App {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-ku",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler(opts.Logger),
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(recover.New())

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	RegisterRoutes(app, service)

	return app
}
