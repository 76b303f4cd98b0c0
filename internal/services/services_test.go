package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/mailer"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/internal/snapshot"
	"github.com/anonto42/folio/backend/internal/testutil"
	"github.com/anonto42/folio/backend/pkg/config"
)

var fixedNow = time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

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

// flakyStore is a memory snapshot store whose writes can be switched off
type flakyStore struct {
	*snapshot.MemoryStore
	mu   sync.Mutex
	down bool
}

func (s *flakyStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()
	if down {
		return errors.New("snapshot store unavailable")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type harness struct {
	ctx             context.Context
	notificationsDB repositories.NotificationRepository
	subscriptionsDB repositories.SubscriptionRepository
	appointmentsDB  repositories.AppointmentRepository
	notifications   *NotificationService
	engagement      *EngagementService
	subscriptions   *SubscriptionService
	appointments    *AppointmentService
	portfolios      *PortfolioService
	mail            *recordingMailer
	users           *repositories.PostgresUserRepository
	store           *flakyStore

	alice, bob, carol, admin *models.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()
	db := testutil.NewDB(t)
	store := &flakyStore{MemoryStore: snapshot.NewMemoryStore()}

	users := repositories.NewPostgresUserRepository(db)
	seed := []*models.User{
		{Username: "alice", Email: "alice@example.com", DisplayName: "Alice"},
		{Username: "bob", Email: "bob@example.com", DisplayName: "Bob"},
		{Username: "carol", Email: "carol@example.com", DisplayName: "Carol"},
		{Username: "root", Email: "root@example.com", DisplayName: "Root", Role: models.RoleAdmin},
	}
	for _, u := range seed {
		require.NoError(t, users.CreateUser(ctx, u))
	}

	templates := repositories.NewPostgresTemplateRepository(db)
	require.NoError(t, templates.Seed(ctx, models.DefaultTemplates()))

	h := &harness{
		ctx:             ctx,
		notificationsDB: repositories.NewPostgresNotificationRepository(db),
		subscriptionsDB: repositories.NewPostgresSubscriptionRepository(db),
		appointmentsDB: repositories.NewFallbackAppointmentRepository(
			repositories.NewPostgresAppointmentRepository(db),
			repositories.NewSnapshotAppointmentRepository(store), log),
		mail:  &recordingMailer{},
		users: users,
		store: store,
		alice: identity.SessionFor(seed[0]),
		bob:   identity.SessionFor(seed[1]),
		carol: identity.SessionFor(seed[2]),
		admin: identity.SessionFor(seed[3]),
	}
	portfolioRepo := repositories.NewFallbackPortfolioRepository(
		repositories.NewPostgresPortfolioRepository(db),
		repositories.NewSnapshotPortfolioRepository(store), log)

	resolver := identity.NewResolver(users)
	h.notifications = NewNotificationService(h.notificationsDB, log)
	h.notifications.SetClock(func() time.Time { return fixedNow })
	h.engagement = NewEngagementService(repositories.NewSnapshotPostRepository(store), h.subscriptionsDB, resolver, h.notifications, log)
	h.subscriptions = NewSubscriptionService(h.subscriptionsDB, resolver, h.notifications)
	h.portfolios = NewPortfolioService(portfolioRepo, templates, log)
	h.appointments = NewAppointmentService(h.appointmentsDB, portfolioRepo, resolver, h.notifications, h.mail,
		&config.AppointmentConfig{MeetingBaseURL: "https://meet.example.com/"}, log)
	return h
}

// feed returns every notification of a recipient, newest first
func (h *harness) feed(t *testing.T, recipient string) []models.Notification {
	t.Helper()
	ns, _, err := h.notificationsDB.GetByRecipientID(h.ctx, recipient, 0, 0)
	require.NoError(t, err)
	return ns
}

func (h *harness) post(t *testing.T, author *models.Session, title string, tagged ...string) string {
	t.Helper()
	id, err := h.engagement.CreatePost(h.ctx, author, models.CreatePostRequest{Title: title, Content: "body", TaggedUsers: tagged})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func (h *harness) portfolio(t *testing.T, owner *models.Session, slug string) *models.Portfolio {
	t.Helper()
	p, err := h.portfolios.Create(h.ctx, owner, models.PortfolioRequest{Slug: slug, TemplateID: "minimal", Title: "Portfolio"})
	require.NoError(t, err)
	return p
}
