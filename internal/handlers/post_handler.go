package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	engagement *services.EngagementService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(engagement *services.EngagementService) *PostHandler {
	return &PostHandler{engagement: engagement}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts) // all posts, or ?author=<username>
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post and mentions its tagged users
func (h *PostHandler) CreatePost(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	id, err := h.engagement.CreatePost(ctx, sess, req)
	if err != nil {
		return fail(c, err)
	}
	post, err := h.engagement.GetPost(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return created(c, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.engagement.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if post == nil {
		return notFound("Post")
	}
	return ok(c, post)
}

// GetPosts pages posts newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, limit := pagination(c)
	posts, total, err := h.engagement.ListPosts(c.Request().Context(), c.QueryParam("author"),
		int64((page-1)*limit), int64(limit))
	if err != nil {
		return fail(c, err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return paged(c, "posts", posts, page, limit, total)
}

// UpdatePost edits a post's title or content
func (h *PostHandler) UpdatePost(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.engagement.UpdatePost(c.Request().Context(), sess, c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	if post == nil {
		return notFound("Post")
	}
	return ok(c, post)
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	if err := h.engagement.DeletePost(c.Request().Context(), sess, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
