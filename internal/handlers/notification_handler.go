package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread", h.GetUnread)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.DELETE("/notifications", h.ClearAll)
}

// EnrichedNotification carries the client route the notification opens
type EnrichedNotification struct {
	models.Notification
	Link string `json:"link"`
}

func enrich(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	for i := range notifications {
		enriched[i] = EnrichedNotification{Notification: notifications[i], Link: notifications[i].Link()}
	}
	return enriched
}

func notificationID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}
	return uint(id), nil
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	notifications, total, err := h.notifications.List(c.Request().Context(), sess, page, limit)
	if err != nil {
		return fail(c, err)
	}
	return paged(c, "notifications", enrich(notifications), page, limit, total)
}

// GetGroupedNotifications returns notifications grouped into today, yesterday and earlier
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	groups, err := h.notifications.Grouped(ctx, sess)
	if err != nil {
		return fail(c, err)
	}
	unreadCount, err := h.notifications.UnreadCount(ctx, sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{
		"notifications": echo.Map{
			"today":     enrich(groups.Today),
			"yesterday": enrich(groups.Yesterday),
			"earlier":   enrich(groups.Earlier),
		},
		"unreadCount": unreadCount,
	})
}

func (h *NotificationHandler) GetUnread(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	notifications, err := h.notifications.Unread(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"notifications": enrich(notifications)})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	id, err := notificationID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAsRead(c.Request().Context(), sess, id); err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"success": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	updated, err := h.notifications.MarkAllAsRead(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	id, err := notificationID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Request().Context(), sess, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) ClearAll(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	deleted, err := h.notifications.ClearAll(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"deleted": deleted})
}
