package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/recommend"
	"github.com/healthnet/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *recommend.Engine
}

func NewWebSocketHandler(engine *recommend.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

// HandleConnection serves recommendation requests over a websocket, emitting
// pipeline stage updates before the final payload.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type         string    `json:"type"`
			Query        string    `json:"query"`
			UserLocation []float64 `json:"user_location"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "recommend" {
			continue
		}

		if msg.Query == "" || len(msg.UserLocation) != 2 {
			h.sendError(c, "Query and user_location are required")
			continue
		}

		logger.Info("Processing WebSocket recommendation", zap.String("query", msg.Query))

		err = h.streamRecommendation(c, msg.Query, msg.UserLocation[0], msg.UserLocation[1])
		if err != nil {
			logger.Error("Failed to stream recommendation", zap.Error(err))
			h.sendError(c, "Failed to process recommendation")
		}
	}
}

func (h *WebSocketHandler) streamRecommendation(c *websocket.Conn, query string, lat, lon float64) error {
	ctx := context.Background()

	if err := h.sendStatus(c, "Retrieving context..."); err != nil {
		return err
	}

	response, err := h.engine.Recommend(ctx, recommend.Request{
		Query:   query,
		UserLat: lat,
		UserLon: lon,
	})
	if err != nil {
		return err
	}

	if err := h.sendStatus(c, "Assembling recommendation..."); err != nil {
		return err
	}

	return c.WriteJSON(map[string]interface{}{
		"type":     "complete",
		"query":    response.Query,
		"context":  response.Context,
		"response": response.Response,
	})
}

func (h *WebSocketHandler) sendStatus(c *websocket.Conn, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    "status",
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
