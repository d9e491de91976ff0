package handlers

import (
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/services"
	"github.com/gofiber/fiber/v2"
)

type ScenarioHandler struct {
	Validator *RequestValidator
}

func NewScenarioHandler(validator *RequestValidator) *ScenarioHandler {
	return &ScenarioHandler{Validator: validator}
}

// Simulate returns consecutive upper and lower limit price paths
func (h *ScenarioHandler) Simulate(c *fiber.Ctx) error {
	var req models.ScenarioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "invalid request body: " + err.Error(),
		})
	}
	if err := h.Validator.Validate(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	return c.JSON(services.SimulateScenario(req))
}
