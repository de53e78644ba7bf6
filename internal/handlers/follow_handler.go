package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	relationships *services.RelationshipService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(relationships *services.RelationshipService) *FollowHandler {
	return &FollowHandler{relationships: relationships}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.POST("/users/:id/unfollow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	targetID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Follow(c.Request().Context(), currentActor(c), targetID); err != nil {
		return err
	}
	return detailJSON(c, http.StatusOK, "Successfully followed this user.")
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	targetID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Unfollow(c.Request().Context(), currentActor(c), targetID); err != nil {
		return err
	}
	return detailJSON(c, http.StatusOK, "Successfully unfollowed this user.")
}
