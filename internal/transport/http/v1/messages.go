package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
)

// GetSessionMessages retrieves messages for a session.
// GET /api/v1/ai/session/:id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("id")
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.service.GetMessages(c.Request().Context(), sessionID, limit)
	if errors.Is(err, service.ErrSessionNotFound) {
		return errorJSON(c, http.StatusNotFound, err)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": limit > 0 && len(messages) == limit, // Approximate
	})
}
