package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/middleware"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	accounts *services.AccountService
	pager    Paginator
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *services.AccountService, pager Paginator) *UserHandler {
	return &UserHandler{accounts: accounts, pager: pager}
}

// RegisterProfileRoutes registers profile and user lookup routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetMyProfile)
	g.PUT("/users/me", h.UpdateMyProfile)
	g.PATCH("/users/me", h.UpdateMyProfile)
	g.DELETE("/users/me", h.DeleteMyAccount)
	g.POST("/users/me/upload-image", h.UploadProfileImage)
	g.GET("/users", h.SearchUsers)
	g.GET("/users/:id", h.GetUserProfile)
}

// GetMyProfile returns the authenticated user's account
func (h *UserHandler) GetMyProfile(c echo.Context) error {
	user, err := h.accounts.Profile(c.Request().Context(), currentActor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMyProfile applies a partial update; PUT and PATCH behave the same
func (h *UserHandler) UpdateMyProfile(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteMyAccount(c echo.Context) error {
	if err := h.accounts.DeleteAccount(c.Request().Context(), currentActor(c), middleware.Claims(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadProfileImage stores the multipart "image" file as the profile picture
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}

	upload, closeFn, err := formImage(c, "image")
	if err != nil {
		return err
	}
	if upload == nil {
		return &services.Error{Kind: services.KindValidation, Detail: "image is required."}
	}
	defer closeFn()

	user, err := h.accounts.UploadProfileImage(c.Request().Context(), actor, upload.Filename, upload.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"id": user.ID, "image": user.Image})
}

// SearchUsers lists users filtered by username, first_name and last_name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	var filter models.UserSearchRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	page, err := h.accounts.SearchUsers(c.Request().Context(), filter, h.pager.Page(c))
	if err != nil {
		return err
	}
	return pageJSON(c, "users", page)
}

// GetUserProfile returns a user's public profile with follower lists
func (h *UserHandler) GetUserProfile(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.accounts.PublicProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
