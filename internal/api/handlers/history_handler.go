package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/metrics"
	"github.com/healthnet/backend/internal/storage/models"
	"github.com/healthnet/backend/internal/storage/sqlite"
	"github.com/healthnet/backend/pkg/logger"
)

const defaultHistoryLimit = 20

type HistoryHandler struct {
	db *sqlite.Client
}

func NewHistoryHandler(db *sqlite.Client) *HistoryHandler {
	return &HistoryHandler{
		db: db,
	}
}

func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	records, err := h.db.GetRecentRecommendations(limit)
	if err != nil {
		logger.Error("Failed to load recommendation history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, record := range records {
		history = append(history, fiber.Map{
			"id":              record.ID,
			"query":           record.QueryText,
			"user_location":   []float64{record.UserLatitude, record.UserLongitude},
			"conditions":      record.Conditions,
			"specialties":     record.Specialties,
			"query_location":  record.QueryLocation,
			"max_severity":    record.MaxSeverity,
			"top_hospital":    record.TopHospital,
			"hospitals_count": record.HospitalsCount,
			"cache_hit":       record.CacheHit,
			"latency_ms":      record.LatencyMS,
			"created_at":      record.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"history": history,
	})
}

func (h *HistoryHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		RecommendationID string `json:"recommendation_id"`
		Helpful          *bool  `json:"helpful"`
		Comment          string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.RecommendationID == "" || req.Helpful == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recommendation_id and helpful are required",
		})
	}

	fb := &models.Feedback{
		RecommendationID: req.RecommendationID,
		Helpful:          *req.Helpful,
		Comment:          req.Comment,
		CreatedAt:        time.Now(),
	}

	if err := h.db.InsertFeedback(fb); err != nil {
		logger.Error("Failed to record feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record feedback",
		})
	}

	helpfulLabel := "false"
	score := 0.0
	if *req.Helpful {
		helpfulLabel = "true"
		score = 1.0
	}
	metrics.UserSatisfaction.WithLabelValues(helpfulLabel).Set(score)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
	})
}
