package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a blog entry stored as one document with its comments and replies embedded
type Post struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Content     string             `json:"content" bson:"content"`
	AuthorID    string             `json:"author_id" bson:"author_id"`
	AuthorName  string             `json:"author_name" bson:"author_name"`
	AuthorRole  Role               `json:"author_role" bson:"author_role"`
	TaggedUsers []string           `json:"tagged_users" bson:"tagged_users"`
	ImageURLs   []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	VideoURLs   []string           `json:"video_urls,omitempty" bson:"video_urls,omitempty"`
	Likes       []string           `json:"likes" bson:"likes"`
	Comments    []Comment          `json:"comments" bson:"comments"`
	Shares      int                `json:"shares" bson:"shares"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentsCount counts comments and their replies
func (p *Post) CommentsCount() int {
	n := len(p.Comments)
	for _, c := range p.Comments {
		n += len(c.Replies)
	}
	return n
}

func (p *Post) FindComment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// PostStats are the derived engagement counters of a post. Comments includes replies.
type PostStats struct {
	PostID   string `json:"post_id"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Replies  int    `json:"replies"`
	Shares   int    `json:"shares"`
}

func (p *Post) Stats() PostStats {
	comments := p.CommentsCount()
	return PostStats{
		PostID:   p.ID.Hex(),
		Likes:    len(p.Likes),
		Comments: comments,
		Replies:  comments - len(p.Comments),
		Shares:   p.Shares,
	}
}

// PostFilter narrows post listings. Empty AuthorIDs means all authors.
type PostFilter struct {
	AuthorIDs []string
}

type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Content     string   `json:"content" validate:"required,min=1,max=10000"`
	TaggedUsers []string `json:"tagged_users,omitempty" validate:"omitempty,max=20,dive,required"`
	ImageURLs   []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	VideoURLs   []string `json:"video_urls,omitempty" validate:"omitempty,dive,url"`
}

type UpdatePostRequest struct {
	Title   string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content string `json:"content,omitempty" validate:"omitempty,min=1,max=10000"`
}

// FeedPost is a post with the viewer-specific flags a feed shows
type FeedPost struct {
	Post
	Stats   PostStats `json:"stats"`
	IsLiked bool      `json:"is_liked"`
}
