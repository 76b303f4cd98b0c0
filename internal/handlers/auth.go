package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/middleware"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
)

// AuthHandler handles sign-up, sign-in and Firebase login
type AuthHandler struct {
	userRepository repositories.UserRepository
	auth           *middleware.Authenticator
	firebase       middleware.FirebaseVerifier
	log            *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil when Firebase is not configured.
func NewAuthHandler(userRepo repositories.UserRepository, auth *middleware.Authenticator, firebase middleware.FirebaseVerifier, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		auth:           auth,
		firebase:       firebase,
		log:            log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// checkUsername enforces the rules that keep usernames and emails from colliding
func (h *AuthHandler) checkUsername(c echo.Context, username, email string) error {
	if strings.Contains(username, "@") || identity.IsPlaceholder(username) {
		return echo.NewHTTPError(http.StatusBadRequest, "Username is not allowed")
	}
	taken, err := h.userRepository.UsernameOrEmailTaken(c.Request().Context(), username, email)
	if err != nil {
		return fail(c, err)
	}
	if taken {
		return echo.NewHTTPError(http.StatusConflict, "Username or email already registered")
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.auth.IssueToken(identity.SessionFor(user))
	if err != nil {
		h.log.Error("Failed to sign token", zap.String("username", user.Username), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, echo.Map{"success": true, "data": echo.Map{"token": token, "user": user}})
}

// Signup handles local user registration
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	username := identity.Canonical(req.Username)
	email := identity.Canonical(req.Email)
	if err := h.checkUsername(c, username, email); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        models.RoleUser,
		Password:    string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		return fail(c, err)
	}
	h.log.Info("User signed up", zap.String("username", username))
	return h.respondWithToken(c, http.StatusCreated, user)
}

// SignIn authenticates with a username or email and a password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.FindByLogin(c.Request().Context(), req.Login)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return fail(c, err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

// usernameFromEmail derives a username candidate from the local part of an email
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT, linking or creating
// the local account on first login
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebase.Verify(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	email := identity.Canonical(token.Email)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, token.UID)
	if err == nil {
		return h.respondWithToken(c, http.StatusOK, user)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fail(c, err)
	}

	// an existing local account with the same email gets linked, but only to a
	// Firebase identity that proved it owns the address
	user, err = h.userRepository.FindByLogin(ctx, email)
	switch {
	case err == nil && !token.EmailVerified:
		return echo.NewHTTPError(http.StatusConflict, "Email already registered, verify it with Firebase to link accounts")
	case err == nil:
		uid := token.UID
		user.FirebaseUID = &uid
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return fail(c, err)
		}
		h.log.Info("Linked Firebase account", zap.String("username", user.Username))
		return h.respondWithToken(c, http.StatusOK, user)
	case !errors.Is(err, repositories.ErrNotFound):
		return fail(c, err)
	}

	username := identity.Canonical(req.Username)
	if username == "" {
		username = usernameFromEmail(email)
	}
	if len(username) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "A username is required")
	}
	if err := h.checkUsername(c, username, email); err != nil {
		return err
	}

	uid := token.UID
	displayName := token.DisplayName
	if displayName == "" {
		displayName = username
	}
	user = &models.User{
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		Role:        models.RoleUser,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return fail(c, err)
	}
	h.log.Info("User signed up with Firebase", zap.String("username", username))
	return h.respondWithToken(c, http.StatusCreated, user)
}
