// Package v1 provides the public HTTP handlers of the chat API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	logger  *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers external routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1/ai")

	// Chat streaming
	api.POST("/chat-with-thinking", h.ChatWithThinking)
	api.POST("/chat-with-thinking-text", h.ChatWithThinkingText)

	// Sessions
	api.POST("/session/create", h.CreateSession)
	api.DELETE("/session/:id", h.DeleteSession)
	api.GET("/session/:id/messages", h.GetSessionMessages)

	// Upstream models
	api.GET("/models", h.ListModels)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Ready(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}
