package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tablebook/internal/app"
	"tablebook/internal/domain"
)

type fakeReservationRepo struct {
	created   []domain.Reservation
	byID      map[string]domain.Reservation
	statuses  map[string]string
	waitlist  []domain.WaitlistEntry
	purchases []domain.ExperiencePurchase
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: map[string]domain.Reservation{}, statuses: map[string]string{}}
}

func (f *fakeReservationRepo) CreateReservation(ctx context.Context, r domain.Reservation) error {
	f.created = append(f.created, r)
	f.byID[r.ID] = r
	return nil
}
func (f *fakeReservationRepo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	r, ok := f.byID[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}
func (f *fakeReservationRepo) ListUserReservations(ctx context.Context, userID string, limit int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.created {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeReservationRepo) SetReservationStatus(ctx context.Context, id, status string) error {
	r, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	f.byID[id] = r
	f.statuses[id] = status
	return nil
}
func (f *fakeReservationRepo) JoinWaitlist(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	for _, w := range f.waitlist {
		if w.RestaurantID == e.RestaurantID && w.UserID == e.UserID {
			return domain.WaitlistEntry{}, domain.ErrConflict
		}
	}
	e.ID = int64(len(f.waitlist) + 1)
	e.JoinedAt = time.Now()
	f.waitlist = append(f.waitlist, e)
	return e, nil
}
func (f *fakeReservationRepo) LeaveWaitlist(ctx context.Context, restaurantID int64, userID string) error {
	for i, w := range f.waitlist {
		if w.RestaurantID == restaurantID && w.UserID == userID {
			f.waitlist = append(f.waitlist[:i], f.waitlist[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
func (f *fakeReservationRepo) GetWaitlistEntry(ctx context.Context, restaurantID int64, userID string) (domain.WaitlistEntry, int, error) {
	pos := 0
	for _, w := range f.waitlist {
		if w.RestaurantID != restaurantID {
			continue
		}
		pos++
		if w.UserID == userID {
			return w, pos, nil
		}
	}
	return domain.WaitlistEntry{}, 0, domain.ErrNotFound
}
func (f *fakeReservationRepo) CreatePurchase(ctx context.Context, p domain.ExperiencePurchase) error {
	f.purchases = append(f.purchases, p)
	return nil
}
func (f *fakeReservationRepo) ListUserPurchases(ctx context.Context, userID string, limit int) ([]domain.ExperiencePurchase, error) {
	return f.purchases, nil
}

func newBookingService(restaurants *fakeRestaurantRepo, res *fakeReservationRepo, cache *fakeCache) *app.BookingService {
	return app.NewBookingService(restaurants, res, cache, 10*time.Minute)
}

func TestBookTable_CreatesPendingAndEvictsCache(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 1, Active: true}}
	res := newFakeReservationRepo()
	cache := &fakeCache{store: map[string][]byte{"reservations:user:u1": []byte(`[]`)}}
	b := newBookingService(restaurants, res, cache)

	r, err := b.BookTable(context.Background(), "u1", app.BookRequest{
		RestaurantID: 1,
		PartySize:    4,
		StartsAt:     time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.Status != domain.ReservationPending {
		t.Fatalf("expected pending, got %s", r.Status)
	}
	if r.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, ok := cache.store["reservations:user:u1"]; ok {
		t.Fatalf("expected reservations cache evicted")
	}
}

func TestBookTable_RejectsInactiveRestaurant(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 1, Active: false}}
	b := newBookingService(restaurants, newFakeReservationRepo(), &fakeCache{})

	_, err := b.BookTable(context.Background(), "u1", app.BookRequest{
		RestaurantID: 1, PartySize: 2, StartsAt: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookTable_RejectsPastSlot(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 1, Active: true}}
	b := newBookingService(restaurants, newFakeReservationRepo(), &fakeCache{})

	_, err := b.BookTable(context.Background(), "u1", app.BookRequest{
		RestaurantID: 1, PartySize: 2, StartsAt: time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCancelReservation_OwnerOnly(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 1, Active: true}}
	res := newFakeReservationRepo()
	b := newBookingService(restaurants, res, &fakeCache{})

	r, err := b.BookTable(context.Background(), "u1", app.BookRequest{
		RestaurantID: 1, PartySize: 2, StartsAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := b.CancelReservation(context.Background(), "intruder", r.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := b.CancelReservation(context.Background(), "u1", r.ID); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if res.statuses[r.ID] != domain.ReservationCancelled {
		t.Fatalf("expected cancelled, got %s", res.statuses[r.ID])
	}

	// cancelling twice is a conflict
	if err := b.CancelReservation(context.Background(), "u1", r.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on double cancel, got %v", err)
	}
}

func TestJoinWaitlist_PositionAndDuplicate(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 9, Active: true}}
	res := newFakeReservationRepo()
	cache := &fakeCache{}
	b := newBookingService(restaurants, res, cache)

	_, pos, err := b.JoinWaitlist(context.Background(), "u1", 9, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pos != 1 {
		t.Fatalf("expected position 1, got %d", pos)
	}
	_, pos2, err := b.JoinWaitlist(context.Background(), "u2", 9, 4)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pos2 != 2 {
		t.Fatalf("expected position 2, got %d", pos2)
	}

	if _, _, err := b.JoinWaitlist(context.Background(), "u1", 9, 2); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on rejoin, got %v", err)
	}
}

func TestWaitlistStatus_CacheAside(t *testing.T) {
	restaurants := &fakeRestaurantRepo{rv: domain.RestaurantView{ID: 9, Active: true}}
	res := newFakeReservationRepo()
	cache := &fakeCache{}
	b := newBookingService(restaurants, res, cache)
	ctx := context.Background()

	if _, _, err := b.JoinWaitlist(ctx, "u1", 9, 2); err != nil {
		t.Fatalf("join: %v", err)
	}

	// First read populates the cache.
	_, pos, err := b.WaitlistStatus(ctx, "u1", 9)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if pos != 1 {
		t.Fatalf("expected position 1, got %d", pos)
	}

	// Drop the repo entry behind the cache's back; the cached answer holds.
	res.waitlist = nil
	_, pos2, err := b.WaitlistStatus(ctx, "u1", 9)
	if err != nil {
		t.Fatalf("status (cached): %v", err)
	}
	if pos2 != 1 {
		t.Fatalf("expected cached position 1, got %d", pos2)
	}

	// Leaving evicts, so the next read sees the repo again.
	res.waitlist = []domain.WaitlistEntry{{RestaurantID: 9, UserID: "u1", PartySize: 2}}
	if err := b.LeaveWaitlist(ctx, "u1", 9); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, _, err := b.WaitlistStatus(ctx, "u1", 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after leave, got %v", err)
	}
}

func TestPurchaseExperience_AmountAndInactive(t *testing.T) {
	price := int64(12_50)
	restaurants := &fakeRestaurantRepo{x: domain.Experience{ID: 3, Active: true, PriceCents: &price}}
	res := newFakeReservationRepo()
	b := newBookingService(restaurants, res, &fakeCache{})

	p, err := b.PurchaseExperience(context.Background(), "u1", 3, 4)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.AmountCents != 4*price {
		t.Fatalf("expected amount %d, got %d", 4*price, p.AmountCents)
	}

	restaurants.x.Active = false
	if _, err := b.PurchaseExperience(context.Background(), "u1", 3, 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
