package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like HTTP requests
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
}

// ToggleLike likes the post, or removes the caller's like if present
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	res, err := h.engagement.ToggleLike(c.Request().Context(), currentActor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
