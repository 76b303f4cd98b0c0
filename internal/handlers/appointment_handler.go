package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/services"
)

// AppointmentHandler handles booking and the owner's review of appointments
type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// RegisterBookingRoute registers the public booking endpoint. It is mounted separately so it
// can run with optional auth and a rate limiter.
func (h *AppointmentHandler) RegisterBookingRoute(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/appointments", h.Book, mw...)
}

// RegisterAppointmentRoutes registers the authenticated appointment routes
func (h *AppointmentHandler) RegisterAppointmentRoutes(g *echo.Group) {
	g.GET("/appointments/received", h.Received)
	g.GET("/appointments/booked", h.Booked)
	g.GET("/appointments/:id", h.Get)
	g.PUT("/appointments/:id/approve", h.Approve)
	g.PUT("/appointments/:id/cancel", h.Cancel)
}

// Book requests an appointment on a portfolio. Anonymous bookers are identified by email.
func (h *AppointmentHandler) Book(c echo.Context) error {
	var req models.BookAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.appointments.Book(c.Request().Context(), currentSession(c), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, a)
}

func (h *AppointmentHandler) Received(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	as, err := h.appointments.Received(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"appointments": nonNil(as)})
}

func (h *AppointmentHandler) Booked(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	as, err := h.appointments.Booked(c.Request().Context(), sess)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, echo.Map{"appointments": nonNil(as)})
}

func (h *AppointmentHandler) Get(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	a, err := h.appointments.Get(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if a == nil {
		return notFound("Appointment")
	}
	return ok(c, a)
}

// Approve confirms a pending appointment and returns it with its meeting link
func (h *AppointmentHandler) Approve(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	a, err := h.appointments.Approve(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if a == nil {
		return notFound("Appointment")
	}
	return ok(c, a)
}

// Cancel cancels as the booker, or as the owner with {"by_owner": true}
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	var req models.CancelAppointmentRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	a, err := h.appointments.Cancel(c.Request().Context(), sess, c.Param("id"), req.ByOwner)
	if err != nil {
		return fail(c, err)
	}
	if a == nil {
		return notFound("Appointment")
	}
	return ok(c, a)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
