package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tablebook/internal/app"
	"tablebook/internal/domain"
)

// ---- fakes ----

type fakeRestaurantRepo struct {
	rv      domain.RestaurantView
	page    domain.RestaurantsPage
	xs      []domain.Experience
	x       domain.Experience
	getErr  error
	misses  []int64
	upserts []domain.Restaurant
}

func (f *fakeRestaurantRepo) UpsertRestaurant(ctx context.Context, r domain.Restaurant) error {
	f.upserts = append(f.upserts, r)
	return nil
}
func (f *fakeRestaurantRepo) UpsertExperiences(ctx context.Context, xs []domain.Experience) error {
	return nil
}
func (f *fakeRestaurantRepo) LogFeedMiss(ctx context.Context, id int64, status int, reason string) error {
	f.misses = append(f.misses, id)
	return nil
}
func (f *fakeRestaurantRepo) GetRestaurant(ctx context.Context, id int64) (domain.RestaurantView, error) {
	if f.getErr != nil {
		return domain.RestaurantView{}, f.getErr
	}
	return f.rv, nil
}
func (f *fakeRestaurantRepo) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	return f.page, nil
}
func (f *fakeRestaurantRepo) ListExperiences(ctx context.Context, restaurantID int64) ([]domain.Experience, error) {
	return f.xs, nil
}
func (f *fakeRestaurantRepo) GetExperience(ctx context.Context, id int64) (domain.Experience, error) {
	if f.getErr != nil {
		return domain.Experience{}, f.getErr
	}
	return f.x, nil
}

type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestGetRestaurant_CacheMissThenHit(t *testing.T) {
	repo := &fakeRestaurantRepo{
		rv: domain.RestaurantView{ID: 42, Name: ptr("Chez Test"), Active: true},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	rv, err := q.GetRestaurant(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rv.ID != 42 || rv.Name == nil || *rv.Name != "Chez Test" {
		t.Fatalf("unexpected restaurant: %+v", rv)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.rv.Name = ptr("SHOULD NOT SEE THIS")

	rv2, err := q.GetRestaurant(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if *rv2.Name != "Chez Test" {
		t.Fatalf("expected cached name, got %s", deref(rv2.Name))
	}
}

func TestListRestaurants_Cache(t *testing.T) {
	repo := &fakeRestaurantRepo{
		page: domain.RestaurantsPage{Items: []domain.RestaurantView{
			{ID: 1, Name: ptr("Trattoria Uno"), Rating: pfloat(4.5), Active: true},
		}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	out, err := q.ListRestaurants(context.Background(), domain.RestaurantsQuery{Limit: 10})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.Items) != 1 || deref(out.Items[0].Name) != "Trattoria Uno" {
		t.Fatalf("unexpected restaurants: %+v", out.Items)
	}

	// Change repo, call again -> should come from cache
	repo.page.Items[0].Name = ptr("Changed")
	out2, _ := q.ListRestaurants(context.Background(), domain.RestaurantsQuery{Limit: 10})
	if deref(out2.Items[0].Name) != "Trattoria Uno" {
		t.Fatalf("expected cached name Trattoria Uno, got %s", deref(out2.Items[0].Name))
	}
}

func TestListRestaurants_FilterVariantsGetDistinctKeys(t *testing.T) {
	repo := &fakeRestaurantRepo{
		page: domain.RestaurantsPage{Items: []domain.RestaurantView{{ID: 1}}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	if _, err := q.ListRestaurants(context.Background(), domain.RestaurantsQuery{Limit: 10}); err != nil {
		t.Fatalf("err: %v", err)
	}
	city := "Lisbon"
	if _, err := q.ListRestaurants(context.Background(), domain.RestaurantsQuery{City: &city, Limit: 10}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(cache.store) != 2 {
		t.Fatalf("expected 2 distinct cache entries, got %d", len(cache.store))
	}
}

func TestListExperiences_Cache(t *testing.T) {
	repo := &fakeRestaurantRepo{
		xs: []domain.Experience{{ID: 7, RestaurantID: 1, Title: ptr("Chef's Table"), Active: true}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	xs, err := q.ListExperiences(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(xs) != 1 || deref(xs[0].Title) != "Chef's Table" {
		t.Fatalf("unexpected experiences: %+v", xs)
	}

	repo.xs[0].Title = ptr("Changed")
	xs2, _ := q.ListExperiences(context.Background(), 1)
	if deref(xs2[0].Title) != "Chef's Table" {
		t.Fatalf("expected cached title, got %s", deref(xs2[0].Title))
	}
}

func ptr[T any](v T) *T { return &v }
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
func pfloat(f float64) *float64 { return &f }
