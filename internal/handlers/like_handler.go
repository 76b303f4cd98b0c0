package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/services"
)

// LikeHandler handles likes, shares and post statistics
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
	g.POST("/posts/:id/share", h.SharePost)
	g.GET("/posts/:id/stats", h.GetStats)
}

// ToggleLike likes the post, or unlikes it when the caller already liked it
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	res, err := h.engagement.LikePost(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if res == nil {
		return notFound("Post")
	}
	return ok(c, res)
}

func (h *LikeHandler) SharePost(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	stats, err := h.engagement.SharePost(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if stats == nil {
		return notFound("Post")
	}
	return ok(c, stats)
}

func (h *LikeHandler) GetStats(c echo.Context) error {
	stats, err := h.engagement.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if stats == nil {
		return notFound("Post")
	}
	return ok(c, stats)
}
