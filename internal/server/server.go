// Package server assembles the Fiber application serving the orders API.
package server

import (
	"errors"
	"net/http"

	"orderdesk/internal/handlers"
	"orderdesk/internal/middleware"
	"orderdesk/internal/services"
	"orderdesk/internal/telemetry"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Options carries the dependencies of the HTTP layer.
type Options struct {
	Service *services.OrderService
	Tokens  *services.TokenService
	Metrics *telemetry.Metrics // nil disables /metrics
	DBPing  handlers.Pinger    // nil reports the database as not configured
	Logger  *zap.Logger
	// AccessLog enables Fiber's request logger on stdout.
	AccessLog bool
}

// New builds the app: /health and /metrics at the root, the orders API under
// /api.
func New(opts Options) *fiber.App {
	log := opts.Logger
	app := fiber.New(fiber.Config{
		AppName:               "orderdesk",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	var metricsHTTP http.Handler
	if opts.Metrics != nil {
		app.Use(opts.Metrics.Middleware())
		metricsHTTP = opts.Metrics.Handler()
	}
	handlers.NewHealthHandler(opts.DBPing, metricsHTTP).RegisterRoutes(app)

	api := app.Group("/api")
	guard := middleware.AuthRequired(opts.Tokens, log)
	handlers.NewOrderHandler(opts.Service, log).RegisterRoutes(api, guard)

	return app
}
