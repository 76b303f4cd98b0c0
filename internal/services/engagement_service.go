package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/pkg/telemetry"
)

// EngagementService is the post, comment, reply, like and share ledger.
// Operations on ids that no longer exist do nothing and return a nil result.
type EngagementService struct {
	posts         repositories.PostRepository
	subscriptions repositories.SubscriptionRepository
	resolver      *identity.Resolver
	notifications *NotificationService
	log           *zap.Logger
}

func NewEngagementService(
	posts repositories.PostRepository,
	subscriptions repositories.SubscriptionRepository,
	resolver *identity.Resolver,
	notifications *NotificationService,
	log *zap.Logger,
) *EngagementService {
	return &EngagementService{
		posts:         posts,
		subscriptions: subscriptions,
		resolver:      resolver,
		notifications: notifications,
		log:           log,
	}
}

// LikeResult is the like state after a toggle
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// lookup returns nil for posts that do not exist
func (s *EngagementService) lookup(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return post, err
}

// ignoreMissing turns ErrNotFound from a repository write into a no-op
func ignoreMissing(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}

func postNotification(typ models.NotificationType, recipient string, sess *models.Session, post *models.Post, msg string) *models.Notification {
	return &models.Notification{
		Type:        typ,
		RecipientID: recipient,
		ActorID:     sess.UserID,
		ActorName:   sess.Name(),
		PostID:      post.ID.Hex(),
		PostTitle:   post.Title,
		Message:     msg,
	}
}

// CreatePost stores a post and sends one mention to each distinct registered tagged user.
// An anonymous caller gets an empty id and no error.
func (s *EngagementService) CreatePost(ctx context.Context, sess *models.Session, req models.CreatePostRequest) (string, error) {
	if !sess.IsAuthenticated() {
		return "", nil
	}
	ctx, span := telemetry.StartSpan(ctx, "engagement.create_post")
	defer span.End()

	tagged, err := s.resolver.ResolveAll(ctx, req.TaggedUsers)
	if err != nil {
		return "", fmt.Errorf("resolve tagged users: %w", err)
	}

	post := &models.Post{
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    sess.UserID,
		AuthorName:  sess.Name(),
		AuthorRole:  sess.Role,
		TaggedUsers: tagged,
		ImageURLs:   req.ImageURLs,
		VideoURLs:   req.VideoURLs,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return "", err
	}

	for _, userID := range tagged {
		s.notifications.notify(ctx, postNotification(models.NotificationMention, userID, sess, post,
			fmt.Sprintf("%s mentioned you in %q", sess.Name(), post.Title)))
	}
	return post.ID.Hex(), nil
}

// LikePost toggles the caller's like. Only a not-liked to liked transition notifies the author.
func (s *EngagementService) LikePost(ctx context.Context, sess *models.Session, postID string) (*LikeResult, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}

	if post.LikedBy(sess.UserID) {
		if _, err := s.posts.RemoveLike(ctx, postID, sess.UserID); err != nil {
			return nil, err
		}
		return &LikeResult{Liked: false, Likes: len(post.Likes) - 1}, nil
	}

	changed, err := s.posts.AddLike(ctx, postID, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// a concurrent request already liked it; the copy read above is stale
		fresh, err := s.lookup(ctx, postID)
		if err != nil || fresh == nil {
			return nil, err
		}
		return &LikeResult{Liked: fresh.LikedBy(sess.UserID), Likes: len(fresh.Likes)}, nil
	}
	s.notifications.notify(ctx, postNotification(models.NotificationLike, post.AuthorID, sess, post,
		fmt.Sprintf("%s liked your post %q", sess.Name(), post.Title)))
	return &LikeResult{Liked: true, Likes: len(post.Likes) + 1}, nil
}

// SharePost counts every share, repeated ones included
func (s *EngagementService) SharePost(ctx context.Context, sess *models.Session, postID string) (*models.PostStats, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}
	if err := s.posts.IncrementShares(ctx, postID); err != nil {
		return nil, ignoreMissing(err)
	}
	post.Shares++

	s.notifications.notify(ctx, postNotification(models.NotificationShare, post.AuthorID, sess, post,
		fmt.Sprintf("%s shared your post %q", sess.Name(), post.Title)))
	stats := post.Stats()
	return &stats, nil
}

func (s *EngagementService) AddComment(ctx context.Context, sess *models.Session, postID, content string) (*models.Comment, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		AuthorID:   sess.UserID,
		AuthorName: sess.Name(),
		Content:    content,
		Replies:    []models.Reply{},
	}
	comment.CreatedAt = s.notifications.now()
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		if ignoreMissing(err) == nil {
			return nil, nil
		}
		return nil, err
	}

	n := postNotification(models.NotificationComment, post.AuthorID, sess, post,
		fmt.Sprintf("%s commented on your post %q", sess.Name(), post.Title))
	n.CommentID = comment.ID
	s.notifications.notify(ctx, n)
	return comment, nil
}

// AddReply appends to a comment and notifies the comment's author
func (s *EngagementService) AddReply(ctx context.Context, sess *models.Session, postID, commentID, content string) (*models.Reply, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}
	parent := post.FindComment(commentID)
	if parent == nil {
		return nil, nil
	}

	reply := &models.Reply{
		ID:         uuid.NewString(),
		CommentID:  commentID,
		AuthorID:   sess.UserID,
		AuthorName: sess.Name(),
		Content:    content,
		CreatedAt:  s.notifications.now(),
	}
	if err := s.posts.AddReply(ctx, postID, commentID, reply); err != nil {
		if ignoreMissing(err) == nil {
			return nil, nil
		}
		return nil, err
	}

	n := postNotification(models.NotificationReply, parent.AuthorID, sess, post,
		fmt.Sprintf("%s replied to your comment on %q", sess.Name(), post.Title))
	n.CommentID = commentID
	s.notifications.notify(ctx, n)
	return reply, nil
}

// UpdatePost edits title or content. Only the author may edit.
func (s *EngagementService) UpdatePost(ctx context.Context, sess *models.Session, postID string, req models.UpdatePostRequest) (*models.Post, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}
	if !sess.Is(post.AuthorID) {
		return nil, ErrForbidden
	}
	if err := s.posts.UpdatePostContent(ctx, postID, req.Title, req.Content); err != nil {
		return nil, ignoreMissing(err)
	}
	return s.lookup(ctx, postID)
}

// canModerate reports whether sess may delete content written by authorID under post
func canModerate(sess *models.Session, post *models.Post, authorID string) bool {
	return sess.Is(authorID) || sess.Is(post.AuthorID) || sess.IsAdmin()
}

// DeletePost removes a post. The author and admins may delete; missing posts are a no-op.
func (s *EngagementService) DeletePost(ctx context.Context, sess *models.Session, postID string) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return err
	}
	if !canModerate(sess, post, post.AuthorID) {
		return ErrForbidden
	}
	return ignoreMissing(s.posts.DeletePost(ctx, postID))
}

func (s *EngagementService) DeleteComment(ctx context.Context, sess *models.Session, postID, commentID string) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil
	}
	if !canModerate(sess, post, comment.AuthorID) {
		return ErrForbidden
	}
	return ignoreMissing(s.posts.DeleteComment(ctx, postID, commentID))
}

func (s *EngagementService) DeleteReply(ctx context.Context, sess *models.Session, postID, commentID, replyID string) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthenticated
	}
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil
	}
	reply := comment.FindReply(replyID)
	if reply == nil {
		return nil
	}
	if !canModerate(sess, post, reply.AuthorID) {
		return ErrForbidden
	}
	return ignoreMissing(s.posts.DeleteReply(ctx, postID, commentID, replyID))
}

// GetPost returns nil for unknown ids
func (s *EngagementService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.lookup(ctx, postID)
}

func (s *EngagementService) Stats(ctx context.Context, postID string) (*models.PostStats, error) {
	post, err := s.lookup(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}
	stats := post.Stats()
	return &stats, nil
}

// ListPosts pages posts newest first, optionally for one author
func (s *EngagementService) ListPosts(ctx context.Context, authorID string, skip, limit int64) ([]models.Post, int64, error) {
	filter := models.PostFilter{}
	if authorID != "" {
		filter.AuthorIDs = []string{identity.Canonical(authorID)}
	}
	posts, err := s.posts.ListPosts(ctx, filter, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.posts.CountPosts(ctx, filter)
	return posts, total, err
}

// Feed pages posts for the viewer. With following set it shows the viewer's own posts and
// those of everyone they subscribe to; otherwise every post.
func (s *EngagementService) Feed(ctx context.Context, sess *models.Session, following bool, skip, limit int64) ([]models.FeedPost, int64, error) {
	filter := models.PostFilter{}
	if following {
		if !sess.IsAuthenticated() {
			return nil, 0, ErrUnauthenticated
		}
		targets, err := s.subscriptions.SubscribedToBy(ctx, sess.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.AuthorIDs = append(targets, sess.UserID)
	}

	posts, err := s.posts.ListPosts(ctx, filter, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	feed := make([]models.FeedPost, len(posts))
	for i, p := range posts {
		feed[i] = models.FeedPost{
			Post:    p,
			Stats:   p.Stats(),
			IsLiked: sess.IsAuthenticated() && p.LikedBy(sess.UserID),
		}
	}
	return feed, total, nil
}
