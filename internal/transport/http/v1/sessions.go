package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
)

// CreateSessionRequest is the body of the session-start endpoint.
type CreateSessionRequest struct {
	UserID string `query:"userId" form:"userId" json:"userId" validate:"required"`
	Type   string `query:"type" form:"type" json:"type"`
	Title  string `query:"title" form:"title" json:"title" validate:"max=255"`
}

// CreateSession starts a new chat session.
// POST /api/v1/ai/session/create
func (h *Handler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := bind(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	session, err := h.service.CreateSession(c.Request().Context(), req.UserID, req.Type, req.Title)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": session.SessionID,
		"session":    session,
	})
}

// DeleteSession logically deletes a session.
// DELETE /api/v1/ai/session/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	err := h.service.DeleteSession(c.Request().Context(), c.Param("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		return errorJSON(c, http.StatusNotFound, err)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
