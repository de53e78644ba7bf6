package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/pulse/backend/internal/middleware"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// currentActor returns the authenticated caller, or the anonymous actor.
func currentActor(c echo.Context) services.Actor {
	if claims := middleware.Claims(c); claims != nil {
		return services.Actor{UserID: claims.UserID}
	}
	return services.Actor{}
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return uint(id), nil
}

// bindAndValidate binds the request into req and runs the registered
// validator on it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// Paginator reads page and limit query parameters.
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paginator) Page(c echo.Context) models.PageRequest {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		limit = p.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return models.PageRequest{Page: page, Limit: limit}
}

// pageJSON writes a paginated listing with items under data[key].
func pageJSON[T any](c echo.Context, key string, page models.Page[T]) error {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			key: items,
		},
		"meta": echo.Map{
			"currentPage":     page.Page,
			"totalPages":      page.TotalPages(),
			"totalItems":      page.Total,
			"itemsPerPage":    page.Limit,
			"hasNextPage":     page.HasNext(),
			"hasPreviousPage": page.Page > 1,
		},
	})
}

func detailJSON(c echo.Context, status int, detail string) error {
	return c.JSON(status, echo.Map{"detail": detail})
}
