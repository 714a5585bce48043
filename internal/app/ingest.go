package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tablebook/internal/domain"
)

type IngestionService struct {
	feed  domain.FeedClient
	repo  domain.RestaurantRepository
	cache domain.Cache
}

func NewIngestionService(c domain.FeedClient, r domain.RestaurantRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{feed: c, repo: r, cache: cache}
}

// IngestRestaurant pulls one feed record and its experiences. 404 and
// 401/403 are "misses": recorded, caches evicted, never fatal. Anything
// else (network, 5xx after retries, decode) bubbles up.
func (s *IngestionService) IngestRestaurant(ctx context.Context, id int64, expCount int) error {
	p, err := s.feed.GetRestaurant(ctx, id)
	if err != nil {
		low := strings.ToLower(err.Error())

		// 404: record no longer in the feed -> record miss, clear caches, stop gracefully.
		if errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found") {
			_ = s.repo.LogFeedMiss(ctx, id, 404, "not found")
			if s.cache != nil {
				s.invalidateRestaurant(ctx, id)
			}
			return nil
		}

		// 401/403: partner inactive or key revoked for this record -> same treatment.
		if strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
			strings.Contains(low, "401") || strings.Contains(low, "unauthorized") {
			_ = s.repo.LogFeedMiss(ctx, id, 403, "inactive")
			if s.cache != nil {
				s.invalidateRestaurant(ctx, id)
			}
			return nil
		}

		return err
	}

	r := mapRestaurant(id, p)
	if err := s.repo.UpsertRestaurant(ctx, r); err != nil {
		return err
	}
	if s.cache != nil {
		s.invalidateRestaurant(ctx, r.ID)
	}

	// Experiences: best-effort. Misses are logged and swallowed, but the
	// experiences cache is always evicted after a successful call (even an
	// empty one) so we never serve a stale list.
	if xs, xerr := s.feed.GetExperiences(ctx, id, expCount); xerr != nil {
		low := strings.ToLower(xerr.Error())
		switch {
		case errors.Is(xerr, domain.ErrNotFound) || strings.Contains(low, "not found"):
			_ = s.repo.LogFeedMiss(ctx, id, 404, "experiences")
			if s.cache != nil {
				_ = s.cache.Del(ctx, experiencesKey(r.ID))
			}
		case strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
			strings.Contains(low, "401") || strings.Contains(low, "unauthorized"):
			_ = s.repo.LogFeedMiss(ctx, id, 403, "experiences")
			if s.cache != nil {
				_ = s.cache.Del(ctx, experiencesKey(r.ID))
			}
		default:
			return xerr
		}
	} else {
		if len(xs) > 0 {
			if err := s.repo.UpsertExperiences(ctx, mapExperiences(r.ID, xs)); err != nil {
				return fmt.Errorf("upsert experiences failed for %d: %w", id, err)
			}
		}
		if s.cache != nil {
			_ = s.cache.Del(ctx, experiencesKey(r.ID))
		}
	}

	return nil
}

func (s *IngestionService) invalidateRestaurant(ctx context.Context, id int64) {
	_ = s.cache.Del(ctx, restaurantKey(id))
	_ = s.cache.Del(ctx, experiencesKey(id))
	// Browse results also go stale; evict the unfiltered variants for the
	// common limits since we cannot enumerate every filter combination.
	for _, lim := range []int{20, 50, 100} {
		_ = s.cache.Del(ctx, browseKey(domain.RestaurantsQuery{Limit: lim}))
	}
}
