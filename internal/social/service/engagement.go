package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/errs"
	"github.com/ScholarChen20/travel-agent/internal/social/domain"
)

// ToggleLike flips the like relation between userID and postID and returns
// the resulting state: true when the post is now liked. The post's
// denormalized like counter moves by one in the matching direction; the
// relation write and the counter write are separate, non-atomic operations.
// On either transition the post's detail entry, the liking user's feed
// namespace, the author's post-list namespace, and every tag namespace the
// post belongs to are invalidated.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return false, errs.ErrNotFound
	}

	existing, err := s.repo.GetLike(ctx, userID, postID)
	if err != nil {
		return false, fmt.Errorf("load like: %w", err)
	}

	liked := existing == nil
	if liked {
		err = s.repo.InsertLike(ctx, &domain.Like{
			ID:        "like_" + uuid.NewString(),
			UserID:    userID,
			PostID:    postID,
			CreatedAt: time.Now().UTC(),
		})
	} else {
		err = s.repo.DeleteLike(ctx, userID, postID)
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	delta := 1
	if !liked {
		delta = -1
	}
	if err := s.repo.AdjustLikes(ctx, postID, delta); err != nil {
		return false, fmt.Errorf("adjust like count: %w", err)
	}

	s.cache.Invalidate(ctx, cache.PostDetailKey(postID))
	s.cache.InvalidatePattern(ctx, cache.UserFeedPattern(userID))
	s.cache.InvalidatePattern(ctx, cache.UserPostsPattern(post.AuthorID))
	for _, tag := range post.Tags {
		s.cache.InvalidatePattern(ctx, cache.TagPostsPattern(tag))
	}

	s.log.Debug("like toggled",
		zap.String("post_id", postID),
		zap.String("user_id", userID),
		zap.Bool("liked", liked))
	return liked, nil
}

// ToggleFollow flips the follow edge from followerID to followingID and
// returns the resulting state: true when now following. Self-follow is
// rejected. Only the follower's own feed namespace needs invalidation; the
// next composition picks up the changed followed-set naturally.
func (s *Service) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, fmt.Errorf("%w: cannot follow yourself", errs.ErrValidation)
	}

	existing, err := s.repo.GetFollow(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("load follow: %w", err)
	}

	following := existing == nil
	if following {
		err = s.repo.InsertFollow(ctx, &domain.Follow{
			ID:          "follow_" + uuid.NewString(),
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   time.Now().UTC(),
		})
	} else {
		err = s.repo.DeleteFollow(ctx, followerID, followingID)
	}
	if err != nil {
		return false, fmt.Errorf("toggle follow: %w", err)
	}

	s.cache.InvalidatePattern(ctx, cache.UserFeedPattern(followerID))

	s.log.Info("follow toggled",
		zap.String("follower_id", followerID),
		zap.String("following_id", followingID),
		zap.Bool("following", following))
	return following, nil
}

// AddComment moderates and persists a comment on a post. Unlike posts, a
// rejected comment is not stored at all; the rejection reason is surfaced
// as a validation error. The post's comment counter and cached detail are
// updated.
func (s *Service) AddComment(ctx context.Context, userID, postID, content, parentID string) (string, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return "", errs.ErrNotFound
	}

	status, reason := s.moderator.Review(content, MinCommentLength)
	if status == domain.ModerationRejected {
		return "", fmt.Errorf("%w: %s", errs.ErrValidation, reason)
	}

	comment := &domain.Comment{
		ID:        "comment_" + uuid.NewString(),
		PostID:    postID,
		AuthorID:  userID,
		Content:   content,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertComment(ctx, comment); err != nil {
		return "", fmt.Errorf("insert comment: %w", err)
	}
	if err := s.repo.IncrementComments(ctx, postID); err != nil {
		return "", fmt.Errorf("adjust comment count: %w", err)
	}

	s.cache.Invalidate(ctx, cache.PostDetailKey(postID))

	s.log.Info("comment added",
		zap.String("comment_id", comment.ID),
		zap.String("post_id", postID),
		zap.String("user_id", userID))
	return comment.ID, nil
}

// PostComments returns a page of a post's top-level comments, newest
// first. Comments are not cached.
func (s *Service) PostComments(ctx context.Context, postID string, p domain.Page) ([]domain.Comment, error) {
	p = normalizePage(p, DefaultCommentLimit)
	comments, err := s.repo.PostComments(ctx, postID, p)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
