package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// CommentHandler handles comments and replies embedded in posts
type CommentHandler struct {
	engagement *services.EngagementService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagement *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagement: engagement}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetComments)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment)
	g.POST("/posts/:id/comments/:comment_id/replies", h.CreateReply)
	g.DELETE("/posts/:id/comments/:comment_id/replies/:reply_id", h.DeleteReply)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.engagement.AddComment(c.Request().Context(), sess, c.Param("id"), req.Content)
	if err != nil {
		return fail(c, err)
	}
	if comment == nil {
		return notFound("Post")
	}
	return created(c, comment)
}

// GetComments lists a post's comments with their replies, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	post, err := h.engagement.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if post == nil {
		return notFound("Post")
	}
	return ok(c, echo.Map{"comments": post.Comments})
}

func (h *CommentHandler) CreateReply(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reply, err := h.engagement.AddReply(c.Request().Context(), sess, c.Param("id"), c.Param("comment_id"), req.Content)
	if err != nil {
		return fail(c, err)
	}
	if reply == nil {
		return notFound("Comment")
	}
	return created(c, reply)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	if err := h.engagement.DeleteComment(c.Request().Context(), sess, c.Param("id"), c.Param("comment_id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) DeleteReply(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	err = h.engagement.DeleteReply(c.Request().Context(), sess, c.Param("id"), c.Param("comment_id"), c.Param("reply_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
