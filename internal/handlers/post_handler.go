package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to single posts
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.PATCH("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formImage opens an optional multipart file. upload is nil when the
// request carries no such file.
func formImage(c echo.Context, field string) (*services.Upload, func(), error) {
	if !isMultipart(c) {
		return nil, func() {}, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
	}
	return &services.Upload{Filename: fh.Filename, Body: f}, func() { f.Close() }, nil
}

func formTime(c echo.Context, field string) (*time.Time, error) {
	v := c.FormValue(field)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &services.Error{Kind: services.KindValidation, Detail: field + " must be an RFC 3339 timestamp."}
	}
	return &t, nil
}

func formBool(c echo.Context, field string) (*bool, error) {
	v := c.FormValue(field)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &services.Error{Kind: services.KindValidation, Detail: field + " must be a boolean."}
	}
	return &b, nil
}

// CreatePost creates a new post from JSON or a multipart form with an
// optional "image" file
func (h *PostHandler) CreatePost(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}

	var req models.CreatePostRequest
	var err error
	if isMultipart(c) {
		req.Text = c.FormValue("text")
		if req.ScheduledAt, err = formTime(c, "scheduled_at"); err != nil {
			return err
		}
		if req.IsPublished, err = formBool(c, "is_published"); err != nil {
			return err
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	image, closeFn, err := formImage(c, "image")
	if err != nil {
		return err
	}
	defer closeFn()

	post, err := h.posts.Create(c.Request().Context(), actor, req, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID with its latest comments
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.Get(c.Request().Context(), currentActor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost updates an existing post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	actor := currentActor(c)
	if !actor.Authenticated() {
		return services.ErrUnauthenticated
	}

	var req models.UpdatePostRequest
	var err error
	if isMultipart(c) {
		if text := c.FormValue("text"); text != "" {
			req.Text = &text
		}
		if req.ScheduledAt, err = formTime(c, "scheduled_at"); err != nil {
			return err
		}
		if req.IsPublished, err = formBool(c, "is_published"); err != nil {
			return err
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	image, closeFn, err := formImage(c, "image")
	if err != nil {
		return err
	}
	defer closeFn()

	post, err := h.posts.Update(c.Request().Context(), actor, c.Param("id"), req, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post owned by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.Delete(c.Request().Context(), currentActor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
