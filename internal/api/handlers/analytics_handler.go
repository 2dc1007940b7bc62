package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healthnet/backend/internal/catalog"
)

type AnalyticsHandler struct {
	cat *catalog.Catalog
}

func NewAnalyticsHandler(cat *catalog.Catalog) *AnalyticsHandler {
	return &AnalyticsHandler{
		cat: cat,
	}
}

// GetHospitalCapacity reports bed availability grouped by hospital.
func (h *AnalyticsHandler) GetHospitalCapacity(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"beds_by_hospital": h.cat.BedsByHospital(),
		"generated_at":     time.Now().Format(time.RFC3339),
	})
}
