package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/internal/services"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	subscriptions  *services.SubscriptionService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, subscriptions *services.SubscriptionService) *UserHandler {
	return &UserHandler{userRepository: userRepo, subscriptions: subscriptions}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:username", h.GetUser)
}

// UserProfile is another user's public profile
type UserProfile struct {
	models.UserCompact
	Counts       models.SubscriptionCounts `json:"counts"`
	IsSubscribed bool                      `json:"is_subscribed"`
}

func (h *UserHandler) self(c echo.Context) (*models.User, error) {
	sess, err := requireSession(c)
	if err != nil {
		return nil, err
	}
	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), sess.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("User profile")
	}
	if err != nil {
		return nil, fail(c, err)
	}
	return user, nil
}

// GetUser returns a profile by username or email
func (h *UserHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.FindByLogin(ctx, c.Param("username"))
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("User")
	}
	if err != nil {
		return fail(c, err)
	}

	counts, err := h.subscriptions.Counts(ctx, user.Username)
	if err != nil {
		return fail(c, err)
	}
	subscribed, err := h.subscriptions.IsSubscribed(ctx, currentSession(c), user.Username)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, UserProfile{UserCompact: user.ToCompact(), Counts: counts, IsSubscribed: subscribed})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.self(c)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// UpdateProfile updates the authenticated user's display name or email
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.self(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if req.DisplayName != "" {
		user.DisplayName = strings.TrimSpace(req.DisplayName)
	}
	if email := identity.Canonical(req.Email); email != "" && email != user.Email {
		other, err := h.userRepository.FindByLogin(ctx, email)
		if err == nil && other.ID != user.ID {
			return echo.NewHTTPError(http.StatusConflict, "Email already registered")
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fail(c, err)
		}
		user.Email = email
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return fail(c, err)
	}
	return ok(c, user)
}

// DeleteUser deletes the authenticated user's account
func (h *UserHandler) DeleteUser(c echo.Context) error {
	user, err := h.self(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.DeleteUser(c.Request().Context(), user.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers finds users by username, display name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}
	users, err := h.userRepository.SearchUsers(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return ok(c, echo.Map{"users": compact})
}
