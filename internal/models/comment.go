package models

import "time"

// Comment is embedded in its post, in insertion order
type Comment struct {
	ID         string    `json:"id" bson:"id"`
	PostID     string    `json:"post_id" bson:"post_id"`
	AuthorID   string    `json:"author_id" bson:"author_id"`
	AuthorName string    `json:"author_name" bson:"author_name"`
	Content    string    `json:"content" bson:"content"`
	Replies    []Reply   `json:"replies" bson:"replies"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func (c *Comment) FindReply(replyID string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i]
		}
	}
	return nil
}

type Reply struct {
	ID         string    `json:"id" bson:"id"`
	CommentID  string    `json:"comment_id" bson:"comment_id"`
	AuthorID   string    `json:"author_id" bson:"author_id"`
	AuthorName string    `json:"author_name" bson:"author_name"`
	Content    string    `json:"content" bson:"content"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
