package handlers

import (
	"database/sql"
	"time"

	"github.com/fenilmodi00/ipo-analytics/database"
	"github.com/fenilmodi00/ipo-analytics/services"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	Engine *services.AnalyticsEngine
	DB     *sql.DB
}

func NewHealthHandler(engine *services.AnalyticsEngine, db *sql.DB) *HealthHandler {
	return &HealthHandler{Engine: engine, DB: db}
}

// Health reports the engine stage, query metrics and database reachability.
// A degraded engine still answers 200; only an unreachable configured
// database turns the check into 503.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	dbStatus := "disabled"
	if h.DB != nil {
		dbStatus = "ok"
		if err := database.HealthCheck(c.UserContext(), h.DB); err != nil {
			dbStatus = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
	}

	engine := h.Engine.Status()
	if engine.Stage != services.StageTrained {
		status = "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"engine":    engine,
		"metrics":   h.Engine.Metrics(),
		"database":  dbStatus,
	})
}
