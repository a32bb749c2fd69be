// Package domain defines the social entities: posts with denormalized
// counters, comments, like and follow relations, and tag rankings.
package domain

import "time"

// ModerationStatus is the outcome of the synchronous content check run
// before a post is persisted.
type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationPending  ModerationStatus = "pending"
)

// Post is a user-authored publication. LikeCount, CommentCount and
// ViewCount are denormalized; they are adjusted with separate writes and
// carry no atomicity guarantee relative to the underlying relations.
type Post struct {
	ID           string           `bson:"post_id" json:"post_id"`
	AuthorID     string           `bson:"user_id" json:"user_id"`
	Title        string           `bson:"title" json:"title"`
	Content      string           `bson:"content" json:"content"`
	MediaURLs    []string         `bson:"media_urls" json:"media_urls"`
	Tags         []string         `bson:"tags" json:"tags"`
	Location     string           `bson:"location,omitempty" json:"location,omitempty"`
	TripPlanID   string           `bson:"trip_plan_id,omitempty" json:"trip_plan_id,omitempty"`
	Moderation   ModerationStatus `bson:"moderation_status" json:"moderation_status"`
	LikeCount    int64            `bson:"like_count" json:"like_count"`
	CommentCount int64            `bson:"comment_count" json:"comment_count"`
	ViewCount    int64            `bson:"view_count" json:"view_count"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at" json:"updated_at"`

	// Liked is viewer-dependent and never persisted. It is populated on
	// viewer-scoped reads such as feed composition.
	Liked bool `bson:"-" json:"liked"`
}

// PostInput carries the caller-supplied fields of a new post.
type PostInput struct {
	Title      string
	Content    string
	MediaURLs  []string
	Tags       []string
	Location   string
	TripPlanID string
}

// Comment is a flat, optionally threaded reply on a post. ParentID is
// empty for top-level comments.
type Comment struct {
	ID        string    `bson:"comment_id" json:"comment_id"`
	PostID    string    `bson:"post_id" json:"post_id"`
	AuthorID  string    `bson:"user_id" json:"user_id"`
	Content   string    `bson:"content" json:"content"`
	ParentID  string    `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	LikeCount int64     `bson:"like_count" json:"like_count"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Like is the relation behind a post's like counter.
type Like struct {
	ID        string    `bson:"like_id" json:"like_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	PostID    string    `bson:"post_id" json:"post_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Follow is a directed edge from follower to followed user.
type Follow struct {
	ID          string    `bson:"follow_id" json:"follow_id"`
	FollowerID  string    `bson:"follower_id" json:"follower_id"`
	FollowingID string    `bson:"following_id" json:"following_id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// TagCount is one entry of the popular-tags ranking.
type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int64  `bson:"count" json:"count"`
}

// Page bounds and offsets a listing.
type Page struct {
	Limit  int
	Offset int
}
