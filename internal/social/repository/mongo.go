package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ScholarChen20/travel-agent/internal/social/domain"
)

const (
	postsCollection    = "social_posts"
	commentsCollection = "social_comments"
	likesCollection    = "social_likes"
	followsCollection  = "social_follows"
)

// MongoRepository implements Repository on a MongoDB database.
type MongoRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
	likes    *mongo.Collection
	follows  *mongo.Collection
}

// NewMongoRepository returns a MongoRepository over the given database.
func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{
		posts:    database.Collection(postsCollection),
		comments: database.Collection(commentsCollection),
		likes:    database.Collection(likesCollection),
		follows:  database.Collection(followsCollection),
	}
}

func (r *MongoRepository) InsertPost(ctx context.Context, p *domain.Post) error {
	_, err := r.posts.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	var p domain.Post
	err := r.posts.FindOne(ctx, bson.M{"post_id": postID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Post, error) {
	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []domain.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoRepository) PostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]domain.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	return r.findPosts(ctx,
		bson.M{
			"user_id":           bson.M{"$in": authorIDs},
			"moderation_status": domain.ModerationApproved,
		},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
}

func (r *MongoRepository) PopularSince(ctx context.Context, since time.Time, limit int) ([]domain.Post, error) {
	return r.findPosts(ctx,
		bson.M{
			"moderation_status": domain.ModerationApproved,
			"created_at":        bson.M{"$gte": since},
		},
		options.Find().SetSort(bson.D{{Key: "like_count", Value: -1}}).SetLimit(int64(limit)))
}

func (r *MongoRepository) RecentPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return r.findPosts(ctx,
		bson.M{"moderation_status": domain.ModerationApproved},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
}

func (r *MongoRepository) AuthorPosts(ctx context.Context, authorID string, p domain.Page) ([]domain.Post, error) {
	return r.findPosts(ctx,
		bson.M{
			"user_id":           authorID,
			"moderation_status": domain.ModerationApproved,
		},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(p.Offset)).
			SetLimit(int64(p.Limit)))
}

func (r *MongoRepository) PostsByTag(ctx context.Context, tag string, p domain.Page) ([]domain.Post, error) {
	return r.findPosts(ctx,
		bson.M{
			"tags":              tag,
			"moderation_status": domain.ModerationApproved,
		},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(p.Offset)).
			SetLimit(int64(p.Limit)))
}

func (r *MongoRepository) IncrementViews(ctx context.Context, postID string) error {
	_, err := r.posts.UpdateOne(ctx,
		bson.M{"post_id": postID},
		bson.M{"$inc": bson.M{"view_count": 1}})
	return err
}

func (r *MongoRepository) AdjustLikes(ctx context.Context, postID string, delta int) error {
	_, err := r.posts.UpdateOne(ctx,
		bson.M{"post_id": postID},
		bson.M{"$inc": bson.M{"like_count": delta}})
	return err
}

func (r *MongoRepository) IncrementComments(ctx context.Context, postID string) error {
	_, err := r.posts.UpdateOne(ctx,
		bson.M{"post_id": postID},
		bson.M{"$inc": bson.M{"comment_count": 1}})
	return err
}

func (r *MongoRepository) GetLike(ctx context.Context, userID, postID string) (*domain.Like, error) {
	var l domain.Like
	err := r.likes.FindOne(ctx, bson.M{"user_id": userID, "post_id": postID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *MongoRepository) InsertLike(ctx context.Context, l *domain.Like) error {
	_, err := r.likes.InsertOne(ctx, l)
	return err
}

func (r *MongoRepository) DeleteLike(ctx context.Context, userID, postID string) error {
	_, err := r.likes.DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	return err
}

func (r *MongoRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	if len(postIDs) == 0 {
		return map[string]bool{}, nil
	}
	cur, err := r.likes.Find(ctx, bson.M{
		"user_id": userID,
		"post_id": bson.M{"$in": postIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	liked := make(map[string]bool, len(postIDs))
	var likes []domain.Like
	if err := cur.All(ctx, &likes); err != nil {
		return nil, err
	}
	for _, l := range likes {
		liked[l.PostID] = true
	}
	return liked, nil
}

func (r *MongoRepository) GetFollow(ctx context.Context, followerID, followingID string) (*domain.Follow, error) {
	var f domain.Follow
	err := r.follows.FindOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MongoRepository) InsertFollow(ctx context.Context, f *domain.Follow) error {
	_, err := r.follows.InsertOne(ctx, f)
	return err
}

func (r *MongoRepository) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	_, err := r.follows.DeleteOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": followingID,
	})
	return err
}

func (r *MongoRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	cur, err := r.follows.Find(ctx, bson.M{"follower_id": followerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var follows []domain.Follow
	if err := cur.All(ctx, &follows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowingID)
	}
	return ids, nil
}

func (r *MongoRepository) InsertComment(ctx context.Context, c *domain.Comment) error {
	_, err := r.comments.InsertOne(ctx, c)
	return err
}

func (r *MongoRepository) PostComments(ctx context.Context, postID string, p domain.Page) ([]domain.Comment, error) {
	cur, err := r.comments.Find(ctx,
		bson.M{"post_id": postID, "parent_id": bson.M{"$in": bson.A{nil, ""}}},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(p.Offset)).
			SetLimit(int64(p.Limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	comments := []domain.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoRepository) PopularTags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"moderation_status": domain.ModerationApproved}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tags := []domain.TagCount{}
	if err := cur.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
