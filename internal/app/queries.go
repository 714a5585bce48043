package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tablebook/internal/domain"
)

type QueryService struct {
	repo     domain.RestaurantRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.RestaurantRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetRestaurant(ctx context.Context, id int64) (domain.RestaurantView, error) {
	key := restaurantKey(id)
	var rv domain.RestaurantView
	if ok, _ := s.cache.Get(ctx, key, &rv); ok {
		return rv, nil
	}
	rv, err := s.repo.GetRestaurant(ctx, id)
	if err != nil {
		return domain.RestaurantView{}, err
	}
	_ = s.cache.Set(ctx, key, rv, int(s.cacheTTL.Seconds()))
	return rv, nil
}

func (s *QueryService) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	key := browseKey(q)
	var out domain.RestaurantsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListRestaurants(ctx, q)
	if err != nil {
		return domain.RestaurantsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyPage := deepCopyRestaurantsPage(page)

	// size guard: skip caching oversized result sets
	if b, _ := json.Marshal(copyPage); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyPage, int(s.cacheTTL.Seconds()))
	}
	return copyPage, nil
}

func (s *QueryService) ListExperiences(ctx context.Context, restaurantID int64) ([]domain.Experience, error) {
	key := experiencesKey(restaurantID)
	var out []domain.Experience
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	xs, err := s.repo.ListExperiences(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	copyXS := make([]domain.Experience, len(xs))
	copy(copyXS, xs)
	_ = s.cache.Set(ctx, key, copyXS, int(s.cacheTTL.Seconds()))
	return copyXS, nil
}

func deepCopyRestaurantsPage(in domain.RestaurantsPage) domain.RestaurantsPage {
	out := domain.RestaurantsPage{NextCursor: in.NextCursor}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.RestaurantView, n)
		copy(out.Items, in.Items)
	}
	return out
}

/********** cache keys **********/

func restaurantKey(id int64) string  { return fmt.Sprintf("restaurant:%d", id) }
func experiencesKey(id int64) string { return fmt.Sprintf("experiences:%d", id) }

func browseKey(q domain.RestaurantsQuery) string {
	norm := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(*p))
	}
	return fmt.Sprintf("restaurants:%s:%s:%s:%d", norm(q.City), norm(q.Cuisine), norm(q.Q), q.Limit)
}

func userReservationsKey(userID string) string { return "reservations:user:" + userID }

func waitlistKey(restaurantID int64, userID string) string {
	return fmt.Sprintf("waitlist:%d:%s", restaurantID, userID)
}
