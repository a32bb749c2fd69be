package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/social/domain"
)

// popularWindow is how far back the popular stratum looks.
const popularWindow = 7 * 24 * time.Hour

// ComposeFeed builds a viewer's feed page by stratified sampling: half the
// requested size from followed authors (newest first), three tenths from
// the last week's most liked posts, and the remainder from the newest
// approved posts overall. The strata are concatenated in that order,
// deduplicated by post id with the first occurrence winning, sorted by
// recency descending, and truncated to limit. A short-yielding stratum is
// not backfilled from the others, so the page may come up short.
//
// Pages are cached per (viewer, limit, offset) with a short TTL; the offset
// is part of the key only, matching the cached-page granularity of the
// listing endpoints.
func (s *Service) ComposeFeed(ctx context.Context, viewerID string, limit, offset int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	key := cache.UserFeedKey(viewerID, limit, offset)

	var cached []domain.Post
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	limitFollowed := limit / 2
	limitPopular := limit * 3 / 10
	limitRecommended := limit - limitFollowed - limitPopular

	following, err := s.repo.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load followed set: %w", err)
	}

	var strata []domain.Post

	followed, err := s.repo.PostsByAuthors(ctx, following, limitFollowed)
	if err != nil {
		return nil, fmt.Errorf("followed stratum: %w", err)
	}
	strata = append(strata, followed...)

	popular, err := s.repo.PopularSince(ctx, time.Now().UTC().Add(-popularWindow), limitPopular)
	if err != nil {
		return nil, fmt.Errorf("popular stratum: %w", err)
	}
	strata = append(strata, popular...)

	recommended, err := s.repo.RecentPosts(ctx, limitRecommended)
	if err != nil {
		return nil, fmt.Errorf("recommended stratum: %w", err)
	}
	strata = append(strata, recommended...)

	seen := make(map[string]struct{}, len(strata))
	feed := make([]domain.Post, 0, len(strata))
	for _, p := range strata {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		feed = append(feed, p)
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}

	if err := s.markLiked(ctx, viewerID, feed); err != nil {
		s.log.Warn("like-state enrichment failed",
			zap.String("user_id", viewerID), zap.Error(err))
	}

	s.cache.SetJSON(ctx, key, feed, s.feedTTL)
	return feed, nil
}

// markLiked sets the viewer-dependent Liked flag on each post.
func (s *Service) markLiked(ctx context.Context, viewerID string, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.repo.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Liked = liked[posts[i].ID]
	}
	return nil
}
