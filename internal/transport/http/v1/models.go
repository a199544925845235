package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
)

// ListModels handles the models list request.
// GET /api/v1/ai/models
func (h *Handler) ListModels(c echo.Context) error {
	models, err := h.service.ListModels(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, llm.ErrorResponse{
			Error: &llm.APIError{
				Message: err.Error(),
				Type:    "upstream_error",
			},
		})
	}

	return c.JSON(http.StatusOK, llm.ModelsResponse{
		Object: "list",
		Data:   models,
	})
}
