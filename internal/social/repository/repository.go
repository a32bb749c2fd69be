package repository

import (
	"context"
	"time"

	"github.com/ScholarChen20/travel-agent/internal/social/domain"
)

// Repository is the document store behind the social service. Every listing
// of posts is restricted to approved posts; GetPost alone returns a post in
// any moderation state.
type Repository interface {
	// InsertPost persists a new post.
	InsertPost(ctx context.Context, p *domain.Post) error
	// GetPost returns the post for id, or nil if not found.
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	// PostsByAuthors returns up to limit approved posts from the given
	// authors, newest first. An empty author set yields no posts.
	PostsByAuthors(ctx context.Context, authorIDs []string, limit int) ([]domain.Post, error)
	// PopularSince returns up to limit approved posts created at or after
	// since, ordered by like count descending.
	PopularSince(ctx context.Context, since time.Time, limit int) ([]domain.Post, error)
	// RecentPosts returns up to limit approved posts, newest first.
	RecentPosts(ctx context.Context, limit int) ([]domain.Post, error)
	// AuthorPosts returns a page of one author's approved posts, newest first.
	AuthorPosts(ctx context.Context, authorID string, p domain.Page) ([]domain.Post, error)
	// PostsByTag returns a page of approved posts carrying tag, newest first.
	PostsByTag(ctx context.Context, tag string, p domain.Page) ([]domain.Post, error)
	// IncrementViews bumps a post's view counter.
	IncrementViews(ctx context.Context, postID string) error
	// AdjustLikes moves a post's like counter by delta.
	AdjustLikes(ctx context.Context, postID string, delta int) error
	// IncrementComments bumps a post's comment counter.
	IncrementComments(ctx context.Context, postID string) error

	// GetLike returns the like relation for (userID, postID), or nil.
	GetLike(ctx context.Context, userID, postID string) (*domain.Like, error)
	// InsertLike persists a like relation.
	InsertLike(ctx context.Context, l *domain.Like) error
	// DeleteLike removes the like relation for (userID, postID).
	DeleteLike(ctx context.Context, userID, postID string) error
	// LikedPostIDs reports which of postIDs userID has liked.
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)

	// GetFollow returns the follow edge, or nil.
	GetFollow(ctx context.Context, followerID, followingID string) (*domain.Follow, error)
	// InsertFollow persists a follow edge.
	InsertFollow(ctx context.Context, f *domain.Follow) error
	// DeleteFollow removes a follow edge.
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	// FollowingIDs returns every user followerID follows.
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)

	// InsertComment persists a comment.
	InsertComment(ctx context.Context, c *domain.Comment) error
	// PostComments returns a page of a post's top-level comments, newest first.
	PostComments(ctx context.Context, postID string, p domain.Page) ([]domain.Comment, error)

	// PopularTags returns the limit most used tags across approved posts.
	PopularTags(ctx context.Context, limit int) ([]domain.TagCount, error)
}
