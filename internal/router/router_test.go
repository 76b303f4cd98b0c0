package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/mailer"
	"github.com/anonto42/folio/backend/internal/testutil"
	"github.com/anonto42/folio/backend/internal/validators"
	"github.com/anonto42/folio/backend/pkg/config"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type server struct {
	t    *testing.T
	e    *echo.Echo
	mail *recordingMailer
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		Server:      config.ServerConfig{BookingRateRPS: 100, BookingRateBurst: 100},
		Auth:        config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1},
		Appointment: config.AppointmentConfig{MeetingBaseURL: "https://meet.test"},
	}
	db := &config.DB{SQL: testutil.NewDB(t)}
	mail := &recordingMailer{}

	e := echo.New()
	e.Validator = validators.NewValidator()
	_, err := SetupRoutes(context.Background(), e, cfg, db, Options{Mailer: mail}, zap.NewNop())
	require.NoError(t, err)
	return &server{t: t, e: e, mail: mail}
}

// do sends a JSON request and decodes the JSON response body
func (s *server) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func data(resp map[string]any) map[string]any {
	d, _ := resp["data"].(map[string]any)
	return d
}

func (s *server) signup(username string) string {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"display_name": username,
		"password":     "password123",
	})
	require.Equal(s.t, http.StatusCreated, code, resp)
	token, _ := data(resp)["token"].(string)
	require.NotEmpty(s.t, token)
	return token
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	s.signup("alice")

	code, _ := s.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"login": "ALICE@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"login": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	taken := map[string]string{"username": "alice2", "email": "alice@example.com", "display_name": "Alice", "password": "password123"}
	code, _ = s.do(http.MethodPost, "/api/v1/auth/signup", "", taken)
	assert.Equal(t, http.StatusConflict, code)

	reserved := map[string]string{"username": "undefined", "email": "u@example.com", "display_name": "Nobody", "password": "password123"}
	code, _ = s.do(http.MethodPost, "/api/v1/auth/signup", "", reserved)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = s.do(http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPortfolioBookingFlow(t *testing.T) {
	s := newServer(t)
	alice := s.signup("alice")
	bob := s.signup("bob")

	code, resp := s.do(http.MethodPost, "/api/v1/portfolios", alice, map[string]any{
		"slug": "alice", "template_id": "developer", "title": "Alice builds things",
	})
	require.Equal(t, http.StatusCreated, code, resp)
	portfolioID := data(resp)["id"].(string)

	code, _ = s.do(http.MethodGet, "/p/alice", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/api/v1/portfolios/"+portfolioID, alice, nil)
	assert.Equal(t, http.StatusOK, code, "owners preview unpublished portfolios")

	code, _ = s.do(http.MethodPut, "/api/v1/portfolios/"+portfolioID+"/publish", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPut, "/api/v1/portfolios/"+portfolioID+"/publish", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(http.MethodGet, "/p/alice", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice builds things", data(resp)["title"])

	code, resp = s.do(http.MethodPost, "/api/v1/appointments", "", map[string]any{
		"portfolio_id": portfolioID,
		"name":         "Dana",
		"email":        "dana@example.com",
		"date":         "2026-03-12",
		"time":         "14:30",
		"reason":       "Hiring chat",
	})
	require.Equal(t, http.StatusCreated, code, resp)
	appointmentID := data(resp)["id"].(string)
	assert.Equal(t, "pending", data(resp)["status"])

	code, resp = s.do(http.MethodGet, "/api/v1/appointments/received", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data(resp)["appointments"], 1)

	code, _ = s.do(http.MethodPut, "/api/v1/appointments/"+appointmentID+"/approve", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(http.MethodPut, "/api/v1/appointments/"+appointmentID+"/approve", alice, nil)
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "approved", data(resp)["status"])
	assert.Contains(t, data(resp)["meeting_link"], "https://meet.test/")
	require.Len(t, s.mail.sent, 1)
	assert.Equal(t, "dana@example.com", s.mail.sent[0].To)

	code, _ = s.do(http.MethodPut, "/api/v1/appointments/"+appointmentID+"/approve", alice, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/v1/appointments", "", map[string]any{
		"portfolio_id": "missing", "name": "Dana", "email": "dana@example.com",
		"date": "2026-03-12", "time": "14:30", "reason": "Hiring chat",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestEngagementFlow(t *testing.T) {
	s := newServer(t)
	alice := s.signup("alice")
	bob := s.signup("bob")

	code, resp := s.do(http.MethodPost, "/api/v1/posts", alice, map[string]any{
		"title": "Launch", "content": "We shipped", "tagged_users": []string{"bob"},
	})
	require.Equal(t, http.StatusCreated, code, resp)
	postID := data(resp)["id"].(string)

	code, resp = s.do(http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data(resp)["liked"])
	code, resp = s.do(http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, data(resp)["liked"])

	code, _ = s.do(http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, map[string]string{"content": "Congrats"})
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/api/v1/users/alice/subscribe", bob, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = s.do(http.MethodGet, "/api/v1/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, data(resp)["count"], "bob was mentioned once")

	// like, comment, subscription
	code, resp = s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, data(resp)["count"])

	code, _ = s.do(http.MethodPut, "/api/v1/notifications/read-all", alice, nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp = s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, data(resp)["count"])

	code, resp = s.do(http.MethodGet, "/api/v1/feed?following=true", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data(resp)["posts"], 1)

	code, _ = s.do(http.MethodDelete, "/api/v1/posts/"+postID, bob, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/api/v1/posts/000000000000000000000000", bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, resp := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp["status"])
}
