package handlers

import (
	"database/sql"
	"errors"

	"github.com/fenilmodi00/ipo-analytics/services"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppDeps are the values the HTTP layer is built from
type AppDeps struct {
	Engine        *services.AnalyticsEngine
	PredictionLog *services.PredictionLogService
	Collectors    *shared.AnalyticsCollectors
	DB            *sql.DB
	AccessLog     bool
}

// NewApp assembles the Fiber application with middleware and routes
func NewApp(deps AppDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "IPO Analytics",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(logger.New())
	}
	// Reflects the caller origin; a wildcard origin cannot carry credentials.
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(string) bool { return true },
		AllowCredentials: true,
	}))

	validator := NewRequestValidator()
	analyticsHandler := NewAnalyticsHandler(deps.Engine, deps.PredictionLog, validator)
	scenarioHandler := NewScenarioHandler(validator)
	healthHandler := NewHealthHandler(deps.Engine, deps.DB)

	app.Get("/", analyticsHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Post("/predict", analyticsHandler.Predict)

	api := app.Group("/api")
	api.Get("/ipo-data", analyticsHandler.GetIPOData)
	api.Post("/scenario", scenarioHandler.Simulate)
	api.Get("/predictions", analyticsHandler.ListPredictions)

	if deps.Collectors != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Collectors.Registry, promhttp.HandlerOpts{})))
	}

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"detail": err.Error(),
	})
}
