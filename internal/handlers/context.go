package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/middleware"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
	"github.com/anonto42/folio/backend/pkg/logging"
)

// currentSession returns the caller's session, nil for anonymous requests
func currentSession(c echo.Context) *models.Session {
	return middleware.SessionFrom(c)
}

// requireSession returns the caller's session or a 401
func requireSession(c echo.Context) (*models.Session, error) {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return sess, nil
}

// bind decodes and validates a request body
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// fail maps a service error onto an HTTP error. Unexpected errors are logged and hidden.
func fail(c echo.Context, err error) error {
	var se *services.ServiceError
	if errors.As(err, &se) {
		return echo.NewHTTPError(se.GetStatusCode(), err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	logging.GetLogger().Error("Request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func notFound(what string) error {
	return echo.NewHTTPError(http.StatusNotFound, what+" not found")
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": data})
}

// pagination reads page and limit query params, clamping limit to [1, 50]
func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}

func pageMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func paged(c echo.Context, key string, items any, page, limit int, total int64) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{key: items},
		"meta":    pageMeta(page, limit, total),
	})
}
