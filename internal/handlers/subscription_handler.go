package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/services"
)

// SubscriptionHandler handles subscribe/unsubscribe HTTP requests
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// RegisterSubscriptionRoutes registers subscription routes. :username also accepts an email.
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/users/:username/subscribe", h.Subscribe)
	g.DELETE("/users/:username/subscribe", h.Unsubscribe)
	g.GET("/users/:username/subscription-status", h.Status)
	g.GET("/users/:username/subscribers", h.Subscribers)
	g.GET("/users/:username/subscriptions", h.Subscriptions)
}

// Subscribe subscribes the caller to a user. Repeating it is harmless.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	subscribed, err := h.subscriptions.Subscribe(c.Request().Context(), sess, c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"subscribed": subscribed})
}

func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	if err := h.subscriptions.Unsubscribe(c.Request().Context(), sess, c.Param("username")); err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"subscribed": false})
}

func (h *SubscriptionHandler) Status(c echo.Context) error {
	subscribed, err := h.subscriptions.IsSubscribed(c.Request().Context(), currentSession(c), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"subscribed": subscribed})
}

func (h *SubscriptionHandler) Subscribers(c echo.Context) error {
	ids, err := h.subscriptions.SubscribersOf(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"subscribers": ids})
}

func (h *SubscriptionHandler) Subscriptions(c echo.Context) error {
	ids, err := h.subscriptions.SubscribedToBy(c.Request().Context(), c.Param("username"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"subscriptions": ids})
}
