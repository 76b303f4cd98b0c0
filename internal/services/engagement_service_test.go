package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
)

func TestCreatePostMentionsTaggedUsers(t *testing.T) {
	h := newHarness(t)

	postID := h.post(t, h.alice, "Hello", "bob", "BOB@example.com", "alice", "ghost")

	mentions := h.feed(t, "bob")
	require.Len(t, mentions, 1)
	n := mentions[0]
	assert.Equal(t, models.NotificationMention, n.Type)
	assert.Equal(t, "bob", n.RecipientID)
	assert.Equal(t, "alice", n.ActorID)
	assert.Equal(t, "Hello", n.PostTitle)
	assert.Equal(t, postID, n.PostID)
	assert.False(t, n.IsRead)

	assert.Empty(t, h.feed(t, "alice"), "self-tags never notify")
	assert.Empty(t, h.feed(t, "ghost"))
}

func TestCreatePostAnonymousIsSilent(t *testing.T) {
	h := newHarness(t)
	id, err := h.engagement.CreatePost(h.ctx, nil, models.CreatePostRequest{Title: "x", Content: "y"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestLikePostIsInvolutive(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")

	res, err := h.engagement.LikePost(h.ctx, h.bob, postID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	likes := h.feed(t, "alice")
	require.Len(t, likes, 1)
	assert.Equal(t, models.NotificationLike, likes[0].Type)
	assert.Equal(t, "bob", likes[0].ActorID)

	res, err = h.engagement.LikePost(h.ctx, h.bob, postID)
	require.NoError(t, err)
	assert.False(t, res.Liked)

	post, err := h.engagement.GetPost(h.ctx, postID)
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	assert.Len(t, h.feed(t, "alice"), 1, "unliking never notifies")

	// a second like notifies again: it is a new not-liked -> liked transition
	_, err = h.engagement.LikePost(h.ctx, h.bob, postID)
	require.NoError(t, err)
	assert.Len(t, h.feed(t, "alice"), 2)
}

// racingLikes lets another like by the same user land just before each AddLike
type racingLikes struct {
	repositories.PostRepository
}

func (r racingLikes) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := r.PostRepository.AddLike(ctx, postID, userID); err != nil {
		return false, err
	}
	return r.PostRepository.AddLike(ctx, postID, userID)
}

func TestLikePostLostRaceKeepsCount(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")

	posts := racingLikes{repositories.NewSnapshotPostRepository(h.store)}
	engagement := NewEngagementService(posts, h.subscriptionsDB, nil, h.notifications, zap.NewNop())

	res, err := engagement.LikePost(h.ctx, h.bob, postID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)
	assert.Empty(t, h.feed(t, "alice"), "the winning request notifies, not this one")
}

func TestSelfActionsNeverNotify(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Mine", "alice")

	_, err := h.engagement.LikePost(h.ctx, h.alice, postID)
	require.NoError(t, err)
	_, err = h.engagement.SharePost(h.ctx, h.alice, postID)
	require.NoError(t, err)
	c, err := h.engagement.AddComment(h.ctx, h.alice, postID, "first")
	require.NoError(t, err)
	_, err = h.engagement.AddReply(h.ctx, h.alice, postID, c.ID, "again")
	require.NoError(t, err)
	subscribed, err := h.subscriptions.Subscribe(h.ctx, h.alice, "alice")
	require.NoError(t, err)
	assert.False(t, subscribed)

	assert.Empty(t, h.feed(t, "alice"))

	n, err := h.notifications.Add(h.ctx, &models.Notification{Type: models.NotificationShare, RecipientID: "alice", ActorID: "alice"})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestSharePostCountsEveryShare(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")

	for i := 0; i < 3; i++ {
		_, err := h.engagement.SharePost(h.ctx, h.bob, postID)
		require.NoError(t, err)
	}
	stats, err := h.engagement.Stats(h.ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Shares)

	shares := h.feed(t, "alice")
	require.Len(t, shares, 3)
	assert.Equal(t, models.NotificationShare, shares[0].Type)
}

func TestCommentsAndReplies(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")

	c, err := h.engagement.AddComment(h.ctx, h.bob, postID, "nice")
	require.NoError(t, err)
	toAlice := h.feed(t, "alice")
	require.Len(t, toAlice, 1)
	assert.Equal(t, models.NotificationComment, toAlice[0].Type)
	assert.Equal(t, c.ID, toAlice[0].CommentID)

	_, err = h.engagement.AddReply(h.ctx, h.carol, postID, c.ID, "agreed")
	require.NoError(t, err)
	toBob := h.feed(t, "bob")
	require.Len(t, toBob, 1, "replies notify the comment author")
	assert.Equal(t, models.NotificationReply, toBob[0].Type)
	assert.Len(t, h.feed(t, "alice"), 1)

	stats, err := h.engagement.Stats(h.ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Comments)
	assert.Equal(t, 1, stats.Replies)

	reply, err := h.engagement.AddReply(h.ctx, h.carol, postID, "missing", "lost")
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestMissingPostsAreNoOps(t *testing.T) {
	h := newHarness(t)
	missing := primitive.NewObjectID().Hex()

	like, err := h.engagement.LikePost(h.ctx, h.bob, missing)
	require.NoError(t, err)
	assert.Nil(t, like)

	stats, err := h.engagement.SharePost(h.ctx, h.bob, missing)
	require.NoError(t, err)
	assert.Nil(t, stats)

	c, err := h.engagement.AddComment(h.ctx, h.bob, "not-an-id", "hi")
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.NoError(t, h.engagement.DeletePost(h.ctx, h.bob, missing))
	assert.NoError(t, h.engagement.DeleteComment(h.ctx, h.bob, missing, "c"))
}

func TestDeletePermissions(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")
	c, err := h.engagement.AddComment(h.ctx, h.bob, postID, "nice")
	require.NoError(t, err)
	r, err := h.engagement.AddReply(h.ctx, h.bob, postID, c.ID, "me again")
	require.NoError(t, err)

	assert.ErrorIs(t, h.engagement.DeleteReply(h.ctx, h.carol, postID, c.ID, r.ID), ErrForbidden)
	assert.ErrorIs(t, h.engagement.DeleteComment(h.ctx, h.carol, postID, c.ID), ErrForbidden)
	assert.ErrorIs(t, h.engagement.DeletePost(h.ctx, h.bob, postID), ErrForbidden)

	// post author moderates comments and replies on their post
	require.NoError(t, h.engagement.DeleteReply(h.ctx, h.alice, postID, c.ID, r.ID))
	require.NoError(t, h.engagement.DeleteComment(h.ctx, h.alice, postID, c.ID))

	before := len(h.feed(t, "alice"))
	require.NoError(t, h.engagement.DeletePost(h.ctx, h.admin, postID))
	assert.Len(t, h.feed(t, "alice"), before, "deletions never notify")

	post, err := h.engagement.GetPost(h.ctx, postID)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	h := newHarness(t)
	postID := h.post(t, h.alice, "Hello")

	_, err := h.engagement.UpdatePost(h.ctx, h.bob, postID, models.UpdatePostRequest{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	post, err := h.engagement.UpdatePost(h.ctx, h.alice, postID, models.UpdatePostRequest{Title: "Hello again"})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", post.Title)
	assert.Equal(t, "body", post.Content)
}

func TestFeedFollowingAndLikedFlag(t *testing.T) {
	h := newHarness(t)
	alicePost := h.post(t, h.alice, "From Alice")
	h.post(t, h.carol, "From Carol")

	_, err := h.subscriptions.Subscribe(h.ctx, h.bob, "alice")
	require.NoError(t, err)
	_, err = h.engagement.LikePost(h.ctx, h.bob, alicePost)
	require.NoError(t, err)

	feed, total, err := h.engagement.Feed(h.ctx, h.bob, true, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, feed, 1)
	assert.Equal(t, "From Alice", feed[0].Title)
	assert.True(t, feed[0].IsLiked)
	assert.Equal(t, 1, feed[0].Stats.Likes)

	all, total, err := h.engagement.Feed(h.ctx, nil, false, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range all {
		assert.False(t, p.IsLiked)
	}

	_, _, err = h.engagement.Feed(h.ctx, nil, true, 0, 10)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
