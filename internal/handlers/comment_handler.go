package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	engagement *services.EngagementService
	pager      Paginator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagement *services.EngagementService, pager Paginator) *CommentHandler {
	return &CommentHandler{engagement: engagement, pager: pager}
}

// RegisterCommentRoutes registers comment routes nested under a post
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/posts/:id/comments", h.ListComments)
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments/:comment_id", h.GetComment)
	g.PUT("/posts/:id/comments/:comment_id", h.UpdateComment)
	g.PATCH("/posts/:id/comments/:comment_id", h.UpdateComment)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment)
}

// ListComments returns a page of a post's comments, newest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	page, err := h.engagement.CommentsPage(c.Request().Context(), currentActor(c), c.Param("id"), h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "comments", page)
}

// CreateComment adds a comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.engagement.AddComment(c.Request().Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComment(c echo.Context) error {
	id, err := parseUintParam(c, "comment_id")
	if err != nil {
		return err
	}

	comment, err := h.engagement.GetComment(c.Request().Context(), currentActor(c), c.Param("id"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// UpdateComment replaces the text of the caller's comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}
	id, err := parseUintParam(c, "comment_id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.engagement.UpdateComment(c.Request().Context(), actor, c.Param("id"), id, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes the caller's comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := parseUintParam(c, "comment_id")
	if err != nil {
		return err
	}

	if err := h.engagement.DeleteComment(c.Request().Context(), currentActor(c), c.Param("id"), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
