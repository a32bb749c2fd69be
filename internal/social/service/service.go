// Package service implements the social surface: post creation with
// synchronous moderation, the stratified feed, like/follow toggles,
// comments, and tag rankings. Reads are cache-aside; writes invalidate the
// cached views they affect.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/errs"
	"github.com/ScholarChen20/travel-agent/internal/social/domain"
	"github.com/ScholarChen20/travel-agent/internal/social/repository"
)

const (
	// DefaultPageLimit bounds post listings when the caller passes none.
	DefaultPageLimit = 20
	// DefaultCommentLimit bounds comment listings.
	DefaultCommentLimit = 50
	// DefaultTagLimit bounds the popular-tags ranking.
	DefaultTagLimit = 20
)

// Service is the social service over a document repository and a cache.
type Service struct {
	repo      repository.Repository
	cache     *cache.Coordinator
	moderator *Moderator
	feedTTL   time.Duration
	listTTL   time.Duration
	tagsTTL   time.Duration
	log       *zap.Logger
}

// New returns a Service. feedTTL covers composed feed pages (short, since
// popularity moves quickly), listTTL covers post listings and detail
// entries, tagsTTL covers the tag ranking.
func New(repo repository.Repository, c *cache.Coordinator, moderator *Moderator, feedTTL, listTTL, tagsTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     c,
		moderator: moderator,
		feedTTL:   feedTTL,
		listTTL:   listTTL,
		tagsTTL:   tagsTTL,
		log:       log,
	}
}

// CreatePost moderates and persists a new post. A rejected post is still
// stored, with its status set accordingly, so the author can see why it is
// not public. Affected cached views are invalidated: the author's post
// listings and feed, the tag ranking, and each tag's post listing.
func (s *Service) CreatePost(ctx context.Context, authorID string, in domain.PostInput) (string, error) {
	if authorID == "" {
		return "", fmt.Errorf("%w: author id required", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("%w: title required", errs.ErrValidation)
	}

	status, reason := s.moderator.Review(in.Content, MinPostLength)
	now := time.Now().UTC()
	post := &domain.Post{
		ID:         "post_" + uuid.NewString(),
		AuthorID:   authorID,
		Title:      in.Title,
		Content:    in.Content,
		MediaURLs:  in.MediaURLs,
		Tags:       in.Tags,
		Location:   in.Location,
		TripPlanID: in.TripPlanID,
		Moderation: status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertPost(ctx, post); err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}

	s.cache.InvalidatePattern(ctx, cache.UserPostsPattern(authorID))
	s.cache.InvalidatePattern(ctx, cache.UserFeedPattern(authorID))
	s.cache.InvalidatePattern(ctx, cache.PopularTagsPattern())
	for _, tag := range in.Tags {
		s.cache.InvalidatePattern(ctx, cache.TagPostsPattern(tag))
	}

	if status == domain.ModerationRejected {
		s.log.Info("post rejected by moderation",
			zap.String("post_id", post.ID),
			zap.String("user_id", authorID),
			zap.String("reason", reason))
	} else {
		s.log.Info("post created",
			zap.String("post_id", post.ID), zap.String("user_id", authorID))
	}
	return post.ID, nil
}

// PostDetail returns one post. Cache-aside: a hit still bumps the view
// counter, but asynchronously and best-effort, followed by invalidation so
// the next miss re-reads the updated count. Transient undercounting is
// accepted over blocking the read on a write.
func (s *Service) PostDetail(ctx context.Context, postID string) (*domain.Post, error) {
	key := cache.PostDetailKey(postID)

	var cached domain.Post
	if s.cache.GetJSON(ctx, key, &cached) {
		bg := context.WithoutCancel(ctx)
		go func() {
			if err := s.repo.IncrementViews(bg, postID); err != nil {
				s.log.Warn("view-count increment failed",
					zap.String("post_id", postID), zap.Error(err))
				return
			}
			s.cache.Invalidate(bg, key)
		}()
		return &cached, nil
	}

	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, errs.ErrNotFound
	}
	if err := s.repo.IncrementViews(ctx, postID); err != nil {
		s.log.Warn("view-count increment failed",
			zap.String("post_id", postID), zap.Error(err))
	} else {
		post.ViewCount++
	}

	s.cache.SetJSON(ctx, key, post, s.listTTL)
	return post, nil
}

// UserPosts returns a page of one author's approved posts, newest first.
func (s *Service) UserPosts(ctx context.Context, authorID string, p domain.Page) ([]domain.Post, error) {
	p = normalizePage(p, DefaultPageLimit)
	key := cache.UserPostsKey(authorID, p.Limit, p.Offset)

	var cached []domain.Post
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	posts, err := s.repo.AuthorPosts(ctx, authorID, p)
	if err != nil {
		return nil, fmt.Errorf("list author posts: %w", err)
	}
	s.cache.SetJSON(ctx, key, posts, s.listTTL)
	return posts, nil
}

// PostsByTag returns a page of approved posts carrying tag, newest first.
func (s *Service) PostsByTag(ctx context.Context, tag string, p domain.Page) ([]domain.Post, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("%w: tag required", errs.ErrValidation)
	}
	p = normalizePage(p, DefaultPageLimit)
	key := cache.TagPostsKey(tag, p.Limit, p.Offset)

	var cached []domain.Post
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	posts, err := s.repo.PostsByTag(ctx, tag, p)
	if err != nil {
		return nil, fmt.Errorf("list tag posts: %w", err)
	}
	s.cache.SetJSON(ctx, key, posts, s.listTTL)
	return posts, nil
}

// PopularTags returns the most used tags across approved posts.
func (s *Service) PopularTags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	key := cache.PopularTagsKey(limit)

	var cached []domain.TagCount
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	tags, err := s.repo.PopularTags(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("rank tags: %w", err)
	}
	s.cache.SetJSON(ctx, key, tags, s.tagsTTL)
	return tags, nil
}

func normalizePage(p domain.Page, defaultLimit int) domain.Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
