package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// toggleAttempts bounds how often ToggleLike retries when a concurrent toggle
// changes the document between its two conditional updates.
const toggleAttempts = 3

// MongoPostRepository implements PostRepository for MongoDB. Likes live on
// the post document as the liked_by set.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the feed queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "posted_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "liked_by", Value: 1}}},
		{Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "scheduled_at", Value: 1}}},
	})
	return err
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, post)
	return normalize(err)
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, normalize(err)
	}
	return &post, nil
}

// postFilterDocument translates a PostFilter into a MongoDB query document.
func postFilterDocument(filter models.PostFilter) bson.M {
	doc := bson.M{}
	if filter.Text != "" {
		doc["text"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Text), Options: "i"}
	}
	if len(filter.OwnerIDs) > 0 {
		doc["owner_id"] = bson.M{"$in": filter.OwnerIDs}
	}
	if filter.LikedBy != 0 {
		doc["liked_by"] = filter.LikedBy
	}
	if filter.PublishedOnly {
		doc["is_published"] = true
	}
	return doc
}

func (r *MongoPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, page models.PageRequest) ([]models.Post, int64, error) {
	query := postFilterDocument(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit)).
		SetSort(bson.D{{Key: "posted_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost updates an existing post in MongoDB
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	update := bson.M{
		"$set": bson.M{
			"text":         post.Text,
			"image":        post.Image,
			"is_published": post.IsPublished,
			"scheduled_at": post.ScheduledAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike adds userID to liked_by only if absent, otherwise pulls it only
// if present. Each branch is a single conditional document update.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID string, userID uint) (bool, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": postID, "liked_by": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"liked_by": userID}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount == 1 {
			return true, nil
		}

		res, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": postID, "liked_by": userID},
			bson.M{"$pull": bson.M{"liked_by": userID}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount == 1 {
			return false, nil
		}

		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": postID})
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, ErrNotFound
		}
	}
	return false, fmt.Errorf("toggle like on post %s: too much contention", postID)
}

func (r *MongoPostRepository) LikeStats(ctx context.Context, postIDs []string, viewerID uint) (map[string]models.LikeStat, error) {
	stats := make(map[string]models.LikeStat, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	opts := options.Find().SetProjection(bson.M{"liked_by": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": postIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID      string `bson:"_id"`
		LikedBy []uint `bson:"liked_by"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		stats[d.ID] = likeStatOf(d.LikedBy, viewerID)
	}
	return stats, nil
}

func likeStatOf(likedBy []uint, viewerID uint) models.LikeStat {
	stat := models.LikeStat{Count: int64(len(likedBy))}
	if viewerID == 0 {
		return stat
	}
	for _, id := range likedBy {
		if id == viewerID {
			stat.LikedByMe = true
			break
		}
	}
	return stat
}

func (r *MongoPostRepository) RemoveLikesBy(ctx context.Context, userID uint) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"liked_by": userID},
		bson.M{"$pull": bson.M{"liked_by": userID}},
	)
	return err
}

func (r *MongoPostRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"is_published": false, "scheduled_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"is_published": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoPostRepository) ReassignOwner(ctx context.Context, fromID, toID uint) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"owner_id": fromID},
		bson.M{"$set": bson.M{"owner_id": toID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
