package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/internal/snapshot"
	"github.com/anonto42/folio/backend/internal/testutil"
)

func TestUserRepositoryFindByLogin(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresUserRepository(testutil.NewDB(t))

	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "alice", Email: "Alice@Example.com", DisplayName: "Alice"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "bob", Email: "bob@example.com", DisplayName: "Bob"}))

	u, err := repo.FindByLogin(ctx, "  ALICE@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = repo.FindByLogin(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, err = repo.FindByLogin(ctx, "carol")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = repo.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserRepositoryUsernameOrEmailTaken(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresUserRepository(testutil.NewDB(t))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com"}))

	taken, err := repo.UsernameOrEmailTaken(ctx, "carol", "carol@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	// an email equal to an existing username collides too
	taken, err = repo.UsernameOrEmailTaken(ctx, "carol", "alice")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.UsernameOrEmailTaken(ctx, "ALICE", "x@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserRepositorySearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresUserRepository(testutil.NewDB(t))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com", DisplayName: "Alice"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "bob", Email: "bob@example.com", DisplayName: "Bob 100% real"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "carol", Email: "carol_c@example.com", DisplayName: "Carol"}))

	found, err := repo.SearchUsers(ctx, "%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Username)

	found, err = repo.SearchUsers(ctx, "_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "carol", found[0].Username)

	found, err = repo.SearchUsers(ctx, "ALI")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)
}

func TestNotificationRepositoryScopesToRecipient(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresNotificationRepository(testutil.NewDB(t))

	for _, recipient := range []string{"alice", "alice", "bob"} {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
			Type: models.NotificationLike, RecipientID: recipient, ActorID: "carol", Message: "liked",
		}))
	}

	bobs, _, err := repo.GetByRecipientID(ctx, "bob", 1, 10)
	require.NoError(t, err)
	require.Len(t, bobs, 1)

	ok, err := repo.MarkAsRead(ctx, "alice", bobs[0].ID)
	require.NoError(t, err)
	assert.False(t, ok, "alice must not mark bob's notification")

	n, err := repo.MarkAllAsRead(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	unread, err := repo.GetUnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	deleted, err := repo.Delete(ctx, "alice", bobs[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err = repo.DeleteAll(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, total, err := repo.GetByRecipientID(ctx, "bob", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSubscriptionRepositoryIdempotentCreate(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresSubscriptionRepository(testutil.NewDB(t))

	created, err := repo.Create(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)

	subs, err := repo.SubscribersOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, subs)

	counts, err := repo.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Subscriptions)
	assert.EqualValues(t, 0, counts.Subscribers)

	require.NoError(t, repo.Delete(ctx, "bob", "alice"))
	require.NoError(t, repo.Delete(ctx, "bob", "alice"))
	exists, err := repo.Exists(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSnapshotPostRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewSnapshotPostRepository(snapshot.NewMemoryStore())

	post := &models.Post{Title: "Hello", Content: "world", AuthorID: "alice"}
	require.NoError(t, repo.CreatePost(ctx, post))
	id := post.ID.Hex()

	changed, err := repo.AddLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.AddLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, repo.AddComment(ctx, id, &models.Comment{ID: "c1", AuthorID: "bob", Content: "hi"}))
	require.NoError(t, repo.AddReply(ctx, id, "c1", &models.Reply{ID: "r1", AuthorID: "alice", Content: "hey"}))
	assert.ErrorIs(t, repo.AddReply(ctx, id, "missing", &models.Reply{ID: "r2"}), repositories.ErrNotFound)
	require.NoError(t, repo.IncrementShares(ctx, id))

	got, err := repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got.Likes)
	assert.Equal(t, 1, got.Shares)
	require.Len(t, got.Comments, 1)
	assert.Len(t, got.Comments[0].Replies, 1)

	require.NoError(t, repo.DeleteReply(ctx, id, "c1", "r1"))
	require.NoError(t, repo.DeleteComment(ctx, id, "c1"))
	changed, err = repo.RemoveLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	got, err = repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.Comments)

	posts, err := repo.ListPosts(ctx, models.PostFilter{AuthorIDs: []string{"bob"}}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, repo.DeletePost(ctx, id))
	_, err = repo.GetPostByID(ctx, id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.DeletePost(ctx, id), repositories.ErrNotFound)
}

// brokenAppointments simulates an unreachable primary store
type brokenAppointments struct{ err error }

func (b brokenAppointments) Save(context.Context, *models.Appointment) error { return b.err }
func (b brokenAppointments) Get(context.Context, string) (*models.Appointment, error) {
	return nil, b.err
}
func (b brokenAppointments) ListByOwner(context.Context, string) ([]models.Appointment, error) {
	return nil, b.err
}
func (b brokenAppointments) ListByBooker(context.Context, string) ([]models.Appointment, error) {
	return nil, b.err
}
func (b brokenAppointments) ListUnowned(context.Context, []string) ([]models.Appointment, error) {
	return nil, b.err
}

func newAppointment(id, owner string) *models.Appointment {
	now := time.Now()
	return &models.Appointment{
		ID:               id,
		PortfolioID:      "p1",
		PortfolioOwnerID: owner,
		BookerID:         "bob@example.com",
		Booker:           models.Booker{Name: "Bob", Email: "bob@example.com"},
		Date:             "2026-03-09",
		Time:             "14:30",
		Status:           models.AppointmentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestFallbackAppointmentRepositoryWriteThrough(t *testing.T) {
	ctx := context.Background()
	snap := repositories.NewSnapshotAppointmentRepository(snapshot.NewMemoryStore())
	repo := repositories.NewFallbackAppointmentRepository(
		repositories.NewPostgresAppointmentRepository(testutil.NewDB(t)), snap, zap.NewNop())

	outcome, err := repo.Save(ctx, newAppointment("a1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomePrimary, outcome)

	mirrored, err := snap.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "alice", mirrored.PortfolioOwnerID)

	received, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, received, 1)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFallbackAppointmentRepositoryPrimaryDown(t *testing.T) {
	ctx := context.Background()
	down := brokenAppointments{err: errors.New("connection refused")}
	snap := repositories.NewSnapshotAppointmentRepository(snapshot.NewMemoryStore())
	repo := repositories.NewFallbackAppointmentRepository(down, snap, zap.NewNop())

	outcome, err := repo.Save(ctx, newAppointment("a1", ""))
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeFallback, outcome)

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	unowned, err := repo.ListUnowned(ctx, []string{"", "undefined"})
	require.NoError(t, err)
	assert.Len(t, unowned, 1)

	booked, err := repo.ListByBooker(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

// brokenStore fails every snapshot write
type brokenStore struct{ *snapshot.MemoryStore }

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestFallbackAppointmentRepositoryBothDown(t *testing.T) {
	ctx := context.Background()
	down := brokenAppointments{err: errors.New("connection refused")}
	snap := repositories.NewSnapshotAppointmentRepository(brokenStore{snapshot.NewMemoryStore()})
	repo := repositories.NewFallbackAppointmentRepository(down, snap, zap.NewNop())

	_, err := repo.Save(ctx, newAppointment("a1", "alice"))
	var werr *repositories.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "appointment.save", werr.Op)
	assert.EqualError(t, werr.Primary, "connection refused")
}

func TestFallbackAppointmentRepositoryMergesSnapshotOnlyRecords(t *testing.T) {
	ctx := context.Background()
	primary := repositories.NewPostgresAppointmentRepository(testutil.NewDB(t))
	snap := repositories.NewSnapshotAppointmentRepository(snapshot.NewMemoryStore())
	repo := repositories.NewFallbackAppointmentRepository(primary, snap, zap.NewNop())

	_, err := repo.Save(ctx, newAppointment("a1", "alice"))
	require.NoError(t, err)
	require.NoError(t, snap.Save(ctx, newAppointment("a2", "alice")))

	all, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)
}

func TestSnapshotPortfolioRepositoryKeys(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	repo := repositories.NewSnapshotPortfolioRepository(store)

	p := &models.Portfolio{ID: "p1", UserID: "alice", Slug: "alice-dev", Title: "Alice"}
	require.NoError(t, repo.Save(ctx, p))

	raw, err := store.Get(ctx, "portfolios:slug:alice-dev")
	require.NoError(t, err)
	assert.Equal(t, "p1", string(raw))
	_, err = store.Get(ctx, "portfolios:p1")
	require.NoError(t, err)

	p.Slug = "alice"
	require.NoError(t, repo.Save(ctx, p))
	_, err = repo.GetBySlug(ctx, "alice-dev")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	got, err := repo.GetBySlug(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	mine, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err = repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFallbackPortfolioRepository(t *testing.T) {
	ctx := context.Background()
	snap := repositories.NewSnapshotPortfolioRepository(snapshot.NewMemoryStore())
	repo := repositories.NewFallbackPortfolioRepository(
		repositories.NewPostgresPortfolioRepository(testutil.NewDB(t)), snap, zap.NewNop())

	p := &models.Portfolio{
		ID:       "p1",
		UserID:   "alice",
		Slug:     "alice",
		Title:    "Alice",
		Skills:   []models.Skill{{Name: "Go", Level: 5}},
		Sections: []models.Section{{Title: "Contact", Content: models.Contact{Email: "a@example.com"}}},
	}
	outcome, err := repo.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomePrimary, outcome)

	got, err := repo.GetBySlug(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, models.Contact{Email: "a@example.com"}, got.Sections[0].Content)
	assert.Equal(t, "Go", got.Skills[0].Name)

	outcome, err = repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomePrimary, outcome)
	_, err = snap.Get(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = repo.Delete(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestTemplateRepositorySeed(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewPostgresTemplateRepository(testutil.NewDB(t))

	require.NoError(t, repo.Seed(ctx, models.DefaultTemplates()))
	require.NoError(t, repo.Seed(ctx, models.DefaultTemplates()))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(models.DefaultTemplates()))

	dev, err := repo.List(ctx, "engineering")
	require.NoError(t, err)
	require.Len(t, dev, 1)
	assert.True(t, dev[0].DefaultTheme.Data().DarkMode)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
