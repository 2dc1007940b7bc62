package validation

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{Logger: zap.NewNop()}))

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/recommend", ok)
	app.Post("/api/v1/recommend", ok)

	return app
}

func post(t *testing.T, app *fiber.App, path, contentType string, body []byte) int {
	t.Helper()

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode
}

func queryBody(t *testing.T, query string) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)
	return data
}

func TestMiddleware_ScreensBothRecommendRoutes(t *testing.T) {
	app := testApp()

	long := queryBody(t, strings.Repeat("a", 5001))
	injected := queryBody(t, "with fever; drop table patients")
	benign := queryBody(t, "prescribed eye drops, recommend a physician")

	for _, path := range []string{"/recommend", "/api/v1/recommend"} {
		assert.Equal(t, fiber.StatusBadRequest, post(t, app, path, "application/json", long), path)
		assert.Equal(t, fiber.StatusBadRequest, post(t, app, path, "application/json", injected), path)
		assert.Equal(t, fiber.StatusOK, post(t, app, path, "application/json", benign), path)
	}
}

func TestMiddleware_RejectsUnsupportedContentType(t *testing.T) {
	app := testApp()

	status := post(t, app, "/recommend", "text/plain", []byte("query=fever"))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
}

func TestMiddleware_RejectsMalformedJSON(t *testing.T) {
	app := testApp()

	status := post(t, app, "/api/v1/recommend", "application/json", []byte("{not json"))
	assert.Equal(t, fiber.StatusBadRequest, status)
}
