package handlers

import (
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles the paginated post listings
type FeedHandler struct {
	feed  *services.FeedService
	pager Paginator
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService, pager Paginator) *FeedHandler {
	return &FeedHandler{feed: feed, pager: pager}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts", h.ListPosts)
	g.GET("/posts/my-posts", h.MyPosts)
	g.GET("/posts/following", h.FollowingPosts)
	g.GET("/posts/liked-posts", h.LikedPosts)
}

// ListPosts returns every published post, optionally filtered by ?text=
func (h *FeedHandler) ListPosts(c echo.Context) error {
	page, err := h.feed.Default(c.Request().Context(), currentActor(c), c.QueryParam("text"), h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "posts", page)
}

func (h *FeedHandler) MyPosts(c echo.Context) error {
	page, err := h.feed.Mine(c.Request().Context(), currentActor(c), h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "posts", page)
}

// FollowingPosts returns posts of the users the caller follows
func (h *FeedHandler) FollowingPosts(c echo.Context) error {
	page, err := h.feed.Following(c.Request().Context(), currentActor(c), h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "posts", page)
}

func (h *FeedHandler) LikedPosts(c echo.Context) error {
	page, err := h.feed.Liked(c.Request().Context(), currentActor(c), h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "posts", page)
}
