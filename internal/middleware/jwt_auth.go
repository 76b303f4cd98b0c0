package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/folio/backend/internal/models"
)

const sessionKey = "session"

// Authenticator turns bearer tokens into sessions. Local JWTs are tried first, then
// Firebase ID tokens when Firebase is configured.
type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	firebase FirebaseVerifier
	users    FirebaseUsers
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// IssueToken signs a session into a local JWT
func (a *Authenticator) IssueToken(sess *models.Session) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		AccountID:   sess.AccountID,
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parseJWT(tokenString string) (*models.Session, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return &models.Session{
		AccountID:   claims.AccountID,
		UserID:      claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}

// bearer extracts the token of an "Authorization: Bearer <token>" header
func bearer(c echo.Context) (string, bool, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", true, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], true, nil
}

func (a *Authenticator) authenticate(c echo.Context, tokenString string) error {
	sess, err := a.parseJWT(tokenString)
	if err != nil && a.firebase != nil {
		sess, err = a.firebaseSession(c.Request().Context(), tokenString)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	c.Set(sessionKey, sess)
	return nil
}

// Required rejects requests without a valid bearer token
func (a *Authenticator) Required() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present, err := bearer(c)
			if err != nil {
				return err
			}
			if !present {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			if err := a.authenticate(c, token); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Optional attaches a session when a token is sent and lets anonymous requests through.
// A token that is sent but invalid is still rejected.
func (a *Authenticator) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present, err := bearer(c)
			if err != nil {
				return err
			}
			if present {
				if err := a.authenticate(c, token); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session attached by the auth middleware, nil for anonymous requests
func SessionFrom(c echo.Context) *models.Session {
	sess, _ := c.Get(sessionKey).(*models.Session)
	return sess
}

// SetSession attaches a session to the request
func SetSession(c echo.Context, sess *models.Session) {
	c.Set(sessionKey, sess)
}
