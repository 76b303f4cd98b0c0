package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	engagement *services.EngagementService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(engagement *services.EngagementService) *FeedHandler {
	return &FeedHandler{engagement: engagement}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed pages posts with stats and the caller's like flag. ?following=true limits the
// feed to the caller and the users they subscribe to.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	page, limit := pagination(c)
	following, _ := strconv.ParseBool(c.QueryParam("following"))

	posts, total, err := h.engagement.Feed(c.Request().Context(), currentSession(c), following,
		int64((page-1)*limit), int64(limit))
	if err != nil {
		return fail(c, err)
	}
	if posts == nil {
		posts = []models.FeedPost{}
	}
	return paged(c, "posts", posts, page, limit, total)
}
