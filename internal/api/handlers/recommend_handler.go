package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/recommend"
	"github.com/healthnet/backend/pkg/logger"
)

type RecommendHandler struct {
	engine *recommend.Engine
}

func NewRecommendHandler(engine *recommend.Engine) *RecommendHandler {
	return &RecommendHandler{
		engine: engine,
	}
}

func (h *RecommendHandler) HandleRecommend(c *fiber.Ctx) error {
	var req struct {
		Query        string    `json:"query"`
		UserLocation []float64 `json:"user_location"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" || len(req.UserLocation) != 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query and user_location are required",
		})
	}

	response, err := h.engine.Recommend(c.Context(), recommend.Request{
		Query:   req.Query,
		UserLat: req.UserLocation[0],
		UserLon: req.UserLocation[1],
	})
	if err != nil {
		logger.Error("Failed to process recommendation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(response)
}
