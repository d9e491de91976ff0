package handlers

import (
	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AnalyticsHandler struct {
	Engine        *services.AnalyticsEngine
	PredictionLog *services.PredictionLogService
	Validator     *RequestValidator
}

func NewAnalyticsHandler(engine *services.AnalyticsEngine, predictionLog *services.PredictionLogService, validator *RequestValidator) *AnalyticsHandler {
	return &AnalyticsHandler{
		Engine:        engine,
		PredictionLog: predictionLog,
		Validator:     validator,
	}
}

func (h *AnalyticsHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "IPO Analytics AI is Running",
	})
}

// GetIPOData lists the historical records. Engine failures are reported in
// the body with status "error", never as a transport error.
func (h *AnalyticsHandler) GetIPOData(c *fiber.Ctx) error {
	return c.JSON(h.Engine.ListRecords(c.Query("search")))
}

// Predict classifies one candidate IPO. Invalid bodies are rejected with 422
// and engine errors are translated to 500.
func (h *AnalyticsHandler) Predict(c *fiber.Ctx) error {
	var req models.PredictionRequest
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
	input := req.Input()

	resp := h.Engine.Predict(input)
	if resp.IsError() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": resp.Message,
		})
	}

	if h.PredictionLog.Enabled() {
		if _, err := h.PredictionLog.Save(c.UserContext(), input, resp); err != nil {
			logrus.WithError(err).WithField("ticker", input.Ticker).Warn("Failed to log prediction")
		}
	}

	return c.JSON(resp)
}

// ListPredictions returns the most recent logged predictions
func (h *AnalyticsHandler) ListPredictions(c *fiber.Ctx) error {
	if !h.PredictionLog.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  models.StatusError,
			"message": "Prediction log is not configured",
		})
	}

	entries, err := h.PredictionLog.Recent(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  models.StatusError,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": models.StatusSuccess,
		"total":  len(entries),
		"data":   entries,
	})
}
