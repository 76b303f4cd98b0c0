package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/folio/backend/internal/models"
)

func TestAddDropsEmptyAndSelf(t *testing.T) {
	h := newHarness(t)

	n, err := h.notifications.Add(h.ctx, &models.Notification{Type: models.NotificationLike, ActorID: "bob"})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = h.notifications.Add(h.ctx, &models.Notification{
		Type: models.NotificationLike, RecipientID: "alice", ActorID: "bob", IsRead: true,
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead, "new notifications always start unread")
	assert.True(t, n.CreatedAt.Equal(fixedNow))
}

func TestMarkAllAndClearAllAreScoped(t *testing.T) {
	h := newHarness(t)
	for _, recipient := range []string{"alice", "alice", "bob"} {
		_, err := h.notifications.Add(h.ctx, &models.Notification{Type: models.NotificationShare, RecipientID: recipient, ActorID: "carol"})
		require.NoError(t, err)
	}

	marked, err := h.notifications.MarkAllAsRead(h.ctx, h.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	count, err := h.notifications.UnreadCount(h.ctx, h.alice)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = h.notifications.UnreadCount(h.ctx, h.bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	cleared, err := h.notifications.ClearAll(h.ctx, h.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)
	assert.Empty(t, h.feed(t, "alice"))
	assert.Len(t, h.feed(t, "bob"), 1)
}

func TestMarkAsReadAndDeleteIgnoreForeignIDs(t *testing.T) {
	h := newHarness(t)
	n, err := h.notifications.Add(h.ctx, &models.Notification{Type: models.NotificationComment, RecipientID: "bob", ActorID: "alice"})
	require.NoError(t, err)

	require.NoError(t, h.notifications.MarkAsRead(h.ctx, h.carol, n.ID))
	require.NoError(t, h.notifications.Delete(h.ctx, h.carol, n.ID))
	bob := h.feed(t, "bob")
	require.Len(t, bob, 1)
	assert.False(t, bob[0].IsRead)

	require.NoError(t, h.notifications.MarkAsRead(h.ctx, h.bob, n.ID))
	unread, err := h.notifications.Unread(h.ctx, h.bob)
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, h.notifications.Delete(h.ctx, h.bob, n.ID))
	assert.Empty(t, h.feed(t, "bob"))
}

func TestNotificationsRequireSession(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.notifications.List(h.ctx, nil, 1, 10)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = h.notifications.ClearAll(h.ctx, &models.Session{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGroupByRecency(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*60*60)
	now := time.Date(2026, 3, 9, 1, 30, 0, 0, loc)
	at := func(d time.Time) models.Notification { return models.Notification{CreatedAt: d} }

	ns := []models.Notification{
		at(time.Date(2026, 3, 9, 0, 0, 0, 0, loc)),
		at(time.Date(2026, 3, 8, 23, 59, 0, 0, loc)),
		at(time.Date(2026, 3, 8, 0, 0, 0, 0, loc)),
		at(time.Date(2026, 3, 7, 23, 59, 59, 0, loc)),
		// 18:00 UTC on the 8th is already the 9th at UTC+6
		at(time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC)),
	}

	groups := GroupByRecency(ns, now)
	assert.Len(t, groups.Today, 2)
	assert.Len(t, groups.Yesterday, 2)
	assert.Len(t, groups.Earlier, 1)

	empty := GroupByRecency(nil, now)
	assert.NotNil(t, empty.Today)
	assert.NotNil(t, empty.Earlier)
}

func TestGroupedUsesClock(t *testing.T) {
	h := newHarness(t)
	_, err := h.notifications.Add(h.ctx, &models.Notification{Type: models.NotificationLike, RecipientID: "alice", ActorID: "bob"})
	require.NoError(t, err)

	h.notifications.SetClock(func() time.Time { return fixedNow.Add(24 * time.Hour) })
	groups, err := h.notifications.Grouped(h.ctx, h.alice)
	require.NoError(t, err)
	assert.Empty(t, groups.Today)
	assert.Len(t, groups.Yesterday, 1)
}
