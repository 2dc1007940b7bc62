package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	// Statement-shaped patterns only; single keywords like "drop" appear in
	// legitimate medical queries.
	sqlInjectionPattern = regexp.MustCompile(`(?i)(union\s+select|insert\s+into|drop\s+table|delete\s+from|<script|<iframe|javascript:|onerror=|onload=)`)
)

type Config struct {
	MaxQueryLength      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces content-type and query hygiene on the recommendation
// endpoints. Required-field checks stay in the handlers, which own the exact
// error messages of the API contract.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		// Covers both the primary route and its /api/v1 alias.
		if c.Method() == "POST" && strings.HasSuffix(c.Path(), "/recommend") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if query, ok := req["query"].(string); ok {
				if len(query) > cfg.MaxQueryLength {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "Query exceeds maximum length",
					})
				}

				if sqlInjectionPattern.MatchString(query) {
					cfg.Logger.Warn("Suspicious query content",
						zap.String("ip", c.IP()),
						zap.String("query", query),
					)
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "Invalid query content",
					})
				}
			}
		}

		return c.Next()
	}
}
