package repositories

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/snapshot"
)

const postsKey = "posts"

// SnapshotPostRepository keeps posts in the snapshot store. It serves deployments
// without MongoDB.
type SnapshotPostRepository struct {
	posts *snapshot.Collection[models.Post]
}

func NewSnapshotPostRepository(store snapshot.Store) *SnapshotPostRepository {
	return &SnapshotPostRepository{
		posts: snapshot.NewCollection(store, postsKey, func(p *models.Post) string { return p.ID.Hex() }),
	}
}

// errMiss aborts an Update without writing
var errMiss = errors.New("no change")

func snapshotErr(err error) error {
	if errors.Is(err, snapshot.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *SnapshotPostRepository) update(ctx context.Context, id string, fn func(*models.Post) error) error {
	_, err := r.posts.Update(ctx, id, fn)
	return snapshotErr(err)
}

func (r *SnapshotPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	prepareNewPost(post)
	return r.posts.Upsert(ctx, post)
}

func (r *SnapshotPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := r.posts.Find(ctx, id)
	if err != nil {
		return nil, snapshotErr(err)
	}
	return p, nil
}

func (r *SnapshotPostRepository) matching(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	return r.posts.Filter(ctx, func(p *models.Post) bool {
		return len(filter.AuthorIDs) == 0 || slices.Contains(filter.AuthorIDs, p.AuthorID)
	})
}

func (r *SnapshotPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error) {
	posts, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if skip >= int64(len(posts)) {
		return []models.Post{}, nil
	}
	posts = posts[skip:]
	if limit > 0 && limit < int64(len(posts)) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *SnapshotPostRepository) CountPosts(ctx context.Context, filter models.PostFilter) (int64, error) {
	posts, err := r.matching(ctx, filter)
	return int64(len(posts)), err
}

func (r *SnapshotPostRepository) UpdatePostContent(ctx context.Context, id, title, content string) error {
	return r.update(ctx, id, func(p *models.Post) error {
		if title != "" {
			p.Title = title
		}
		if content != "" {
			p.Content = content
		}
		p.UpdatedAt = time.Now()
		return nil
	})
}

func (r *SnapshotPostRepository) DeletePost(ctx context.Context, id string) error {
	if _, err := r.posts.Find(ctx, id); err != nil {
		return snapshotErr(err)
	}
	return r.posts.Remove(ctx, id)
}

// toggleLike writes only when the like set changes
func (r *SnapshotPostRepository) toggleLike(ctx context.Context, postID, userID string, add bool) (bool, error) {
	err := r.update(ctx, postID, func(p *models.Post) error {
		has := p.LikedBy(userID)
		switch {
		case add && !has:
			p.Likes = append(p.Likes, userID)
		case !add && has:
			p.Likes = slices.DeleteFunc(p.Likes, func(id string) bool { return id == userID })
		default:
			return errMiss
		}
		return nil
	})
	if errors.Is(err, errMiss) || errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *SnapshotPostRepository) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggleLike(ctx, postID, userID, true)
}

func (r *SnapshotPostRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	return r.toggleLike(ctx, postID, userID, false)
}

func (r *SnapshotPostRepository) IncrementShares(ctx context.Context, postID string) error {
	return r.update(ctx, postID, func(p *models.Post) error {
		p.Shares++
		return nil
	})
}

func (r *SnapshotPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	prepareComment(comment)
	return r.update(ctx, postID, func(p *models.Post) error {
		p.Comments = append(p.Comments, *comment)
		return nil
	})
}

func (r *SnapshotPostRepository) AddReply(ctx context.Context, postID, commentID string, reply *models.Reply) error {
	return r.update(ctx, postID, func(p *models.Post) error {
		c := p.FindComment(commentID)
		if c == nil {
			return ErrNotFound
		}
		c.Replies = append(c.Replies, *reply)
		return nil
	})
}

func (r *SnapshotPostRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	return r.update(ctx, postID, func(p *models.Post) error {
		if p.FindComment(commentID) == nil {
			return ErrNotFound
		}
		p.Comments = slices.DeleteFunc(p.Comments, func(c models.Comment) bool { return c.ID == commentID })
		return nil
	})
}

func (r *SnapshotPostRepository) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	return r.update(ctx, postID, func(p *models.Post) error {
		c := p.FindComment(commentID)
		if c == nil || c.FindReply(replyID) == nil {
			return ErrNotFound
		}
		c.Replies = slices.DeleteFunc(c.Replies, func(r models.Reply) bool { return r.ID == replyID })
		return nil
	})
}
