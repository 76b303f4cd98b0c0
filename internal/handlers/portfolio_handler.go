package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// PortfolioHandler handles portfolio editing, publishing and the template catalog
type PortfolioHandler struct {
	portfolios *services.PortfolioService
}

func NewPortfolioHandler(portfolios *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// RegisterPublicRoutes registers routes anyone may call. g should carry optional auth so
// owners can preview unpublished portfolios.
func (h *PortfolioHandler) RegisterPublicRoutes(e *echo.Echo, g *echo.Group) {
	e.GET("/p/:slug", h.GetPublic)
	g.GET("/portfolios/:id", h.Get)
	g.GET("/templates", h.ListTemplates)
	g.GET("/templates/:id", h.GetTemplate)
}

// RegisterPortfolioRoutes registers the authenticated portfolio routes
func (h *PortfolioHandler) RegisterPortfolioRoutes(g *echo.Group) {
	g.POST("/portfolios", h.Create)
	g.GET("/portfolios", h.ListMine)
	g.PUT("/portfolios/:id", h.Update)
	g.PUT("/portfolios/:id/publish", h.Publish)
	g.PUT("/portfolios/:id/unpublish", h.Unpublish)
	g.DELETE("/portfolios/:id", h.Delete)
}

func (h *PortfolioHandler) Create(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.PortfolioRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.portfolios.Create(c.Request().Context(), sess, req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, p)
}

func (h *PortfolioHandler) ListMine(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	ps, err := h.portfolios.ListMine(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"portfolios": nonNil(ps)})
}

func (h *PortfolioHandler) Get(c echo.Context) error {
	p, err := h.portfolios.Get(c.Request().Context(), currentSession(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if p == nil {
		return notFound("Portfolio")
	}
	return ok(c, p)
}

// GetPublic serves a published portfolio by its slug
func (h *PortfolioHandler) GetPublic(c echo.Context) error {
	p, err := h.portfolios.GetPublic(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(c, err)
	}
	if p == nil {
		return notFound("Portfolio")
	}
	return ok(c, p)
}

func (h *PortfolioHandler) Update(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.PortfolioRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.portfolios.Update(c.Request().Context(), sess, c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	if p == nil {
		return notFound("Portfolio")
	}
	return ok(c, p)
}

func (h *PortfolioHandler) setPublished(c echo.Context, published bool) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	p, err := h.portfolios.SetPublished(c.Request().Context(), sess, c.Param("id"), published)
	if err != nil {
		return fail(c, err)
	}
	if p == nil {
		return notFound("Portfolio")
	}
	return ok(c, p)
}

func (h *PortfolioHandler) Publish(c echo.Context) error   { return h.setPublished(c, true) }
func (h *PortfolioHandler) Unpublish(c echo.Context) error { return h.setPublished(c, false) }

func (h *PortfolioHandler) Delete(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	if err := h.portfolios.Delete(c.Request().Context(), sess, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTemplates lists the template catalog, optionally filtered by ?category=
func (h *PortfolioHandler) ListTemplates(c echo.Context) error {
	ts, err := h.portfolios.ListTemplates(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"templates": nonNil(ts)})
}

func (h *PortfolioHandler) GetTemplate(c echo.Context) error {
	t, err := h.portfolios.GetTemplate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if t == nil {
		return notFound("Template")
	}
	return ok(c, t)
}
