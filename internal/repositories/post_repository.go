package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/folio/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository stores posts together with their embedded comments and replies.
// Malformed and unknown ids both yield ErrNotFound.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error)
	CountPosts(ctx context.Context, filter models.PostFilter) (int64, error)
	UpdatePostContent(ctx context.Context, id, title, content string) error
	DeletePost(ctx context.Context, id string) error
	// AddLike and RemoveLike report whether the like set changed
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)
	IncrementShares(ctx context.Context, postID string) error
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	AddReply(ctx context.Context, postID, commentID string, reply *models.Reply) error
	DeleteComment(ctx context.Context, postID, commentID string) error
	DeleteReply(ctx context.Context, postID, commentID, replyID string) error
}

// prepareNewPost fills ids, timestamps and empty arrays so later $push/$addToSet never meet null
func prepareNewPost(post *models.Post) {
	post.ID = primitive.NewObjectID()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.TaggedUsers == nil {
		post.TaggedUsers = []string{}
	}
}

func prepareComment(c *models.Comment) {
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes listings rely on
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func postObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return objID, nil
}

func postFilter(f models.PostFilter) bson.M {
	if len(f.AuthorIDs) == 0 {
		return bson.M{}
	}
	return bson.M{"author_id": bson.M{"$in": f.AuthorIDs}}
}

// matched turns an update result into ErrNotFound when nothing matched
func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	prepareNewPost(post)
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := postObjectID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns posts newest first
func (r *MongoPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, postFilter(filter), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) CountPosts(ctx context.Context, filter models.PostFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, postFilter(filter))
}

func (r *MongoPostRepository) UpdatePostContent(ctx context.Context, id, title, content string) error {
	objID, err := postObjectID(id)
	if err != nil {
		return err
	}
	set := bson.M{"updated_at": time.Now()}
	if title != "" {
		set["title"] = title
	}
	if content != "" {
		set["content"] = content
	}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set}))
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := postObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	objID, err := postObjectID(postID)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	objID, err := postObjectID(postID)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoPostRepository) IncrementShares(ctx context.Context, postID string) error {
	objID, err := postObjectID(postID)
	if err != nil {
		return err
	}
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"shares": 1}}))
}

func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	objID, err := postObjectID(postID)
	if err != nil {
		return err
	}
	prepareComment(comment)
	return matched(r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$push": bson.M{"comments": comment}}))
}

func (r *MongoPostRepository) AddReply(ctx context.Context, postID, commentID string, reply *models.Reply) error {
	objID, err := postObjectID(postID)
	if err != nil {
		return err
	}
	return matched(r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments.id": commentID},
		bson.M{"$push": bson.M{"comments.$.replies": reply}}))
}

func (r *MongoPostRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	objID, err := postObjectID(postID)
	if err != nil {
		return err
	}
	return matched(r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments.id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}}))
}

func (r *MongoPostRepository) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	objID, err := postObjectID(postID)
	if err != nil {
		return err
	}
	return matched(r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments.id": commentID},
		bson.M{"$pull": bson.M{"comments.$.replies": bson.M{"id": replyID}}}))
}
