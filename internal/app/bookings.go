package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tablebook/internal/domain"
)

// BookingService owns the reservation, waitlist and purchase write paths.
// Every successful write invalidates the read caches it affects.
type BookingService struct {
	restaurants domain.RestaurantRepository
	res         domain.ReservationRepository
	cache       domain.Cache
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewBookingService(rr domain.RestaurantRepository, res domain.ReservationRepository, cache domain.Cache, ttl time.Duration) *BookingService {
	return &BookingService{restaurants: rr, res: res, cache: cache, cacheTTL: ttl, now: time.Now}
}

type BookRequest struct {
	RestaurantID int64
	PartySize    int
	StartsAt     time.Time
	Note         *string
}

func (s *BookingService) BookTable(ctx context.Context, userID string, req BookRequest) (domain.Reservation, error) {
	if req.PartySize <= 0 {
		return domain.Reservation{}, fmt.Errorf("party size must be positive: %w", domain.ErrConflict)
	}
	if !req.StartsAt.After(s.now()) {
		return domain.Reservation{}, fmt.Errorf("reservation time is in the past: %w", domain.ErrConflict)
	}
	rv, err := s.restaurants.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !rv.Active {
		return domain.Reservation{}, fmt.Errorf("restaurant is not taking bookings: %w", domain.ErrConflict)
	}

	r := domain.Reservation{
		ID:           uuid.NewString(),
		RestaurantID: req.RestaurantID,
		UserID:       userID,
		PartySize:    req.PartySize,
		StartsAt:     req.StartsAt.UTC(),
		Status:       domain.ReservationPending,
		Note:         req.Note,
	}
	if err := s.res.CreateReservation(ctx, r); err != nil {
		return domain.Reservation{}, err
	}
	_ = s.cache.Del(ctx, userReservationsKey(userID))
	return r, nil
}

func (s *BookingService) ListReservations(ctx context.Context, userID string, limit int) ([]domain.Reservation, error) {
	key := userReservationsKey(userID)
	var out []domain.Reservation
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.res.ListUserReservations(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds()))
	return rs, nil
}

func (s *BookingService) CancelReservation(ctx context.Context, userID, id string) error {
	r, err := s.res.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return domain.ErrForbidden
	}
	switch r.Status {
	case domain.ReservationPending, domain.ReservationConfirmed:
	default:
		return fmt.Errorf("reservation is %s: %w", r.Status, domain.ErrConflict)
	}
	if err := s.res.SetReservationStatus(ctx, id, domain.ReservationCancelled); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, userReservationsKey(userID))
	return nil
}

/********** waitlist **********/

func (s *BookingService) JoinWaitlist(ctx context.Context, userID string, restaurantID int64, partySize int) (domain.WaitlistEntry, int, error) {
	if partySize <= 0 {
		return domain.WaitlistEntry{}, 0, fmt.Errorf("party size must be positive: %w", domain.ErrConflict)
	}
	rv, err := s.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.WaitlistEntry{}, 0, err
	}
	if !rv.Active {
		return domain.WaitlistEntry{}, 0, fmt.Errorf("restaurant is not seating: %w", domain.ErrConflict)
	}
	e, err := s.res.JoinWaitlist(ctx, domain.WaitlistEntry{
		RestaurantID: restaurantID,
		UserID:       userID,
		PartySize:    partySize,
		Status:       domain.WaitlistWaiting,
	})
	if err != nil {
		return domain.WaitlistEntry{}, 0, err
	}
	_ = s.cache.Del(ctx, waitlistKey(restaurantID, userID))
	_, pos, err := s.res.GetWaitlistEntry(ctx, restaurantID, userID)
	if err != nil {
		return e, 0, nil
	}
	return e, pos, nil
}

func (s *BookingService) LeaveWaitlist(ctx context.Context, userID string, restaurantID int64) error {
	if err := s.res.LeaveWaitlist(ctx, restaurantID, userID); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, waitlistKey(restaurantID, userID))
	return nil
}

type waitlistStatus struct {
	Entry    domain.WaitlistEntry
	Position int
}

// WaitlistStatus is cache-aside per (restaurant, user). Positions shift when
// earlier parties leave, so a cached value can lag until TTL or the caller's
// own join/leave evicts it.
func (s *BookingService) WaitlistStatus(ctx context.Context, userID string, restaurantID int64) (domain.WaitlistEntry, int, error) {
	key := waitlistKey(restaurantID, userID)
	var cached waitlistStatus
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached.Entry, cached.Position, nil
	}
	e, pos, err := s.res.GetWaitlistEntry(ctx, restaurantID, userID)
	if err != nil {
		return domain.WaitlistEntry{}, 0, err
	}
	_ = s.cache.Set(ctx, key, waitlistStatus{Entry: e, Position: pos}, int(s.cacheTTL.Seconds()))
	return e, pos, nil
}

/********** experience purchases **********/

func (s *BookingService) PurchaseExperience(ctx context.Context, userID string, experienceID int64, quantity int) (domain.ExperiencePurchase, error) {
	if quantity <= 0 {
		return domain.ExperiencePurchase{}, fmt.Errorf("quantity must be positive: %w", domain.ErrConflict)
	}
	x, err := s.restaurants.GetExperience(ctx, experienceID)
	if err != nil {
		return domain.ExperiencePurchase{}, err
	}
	if !x.Active {
		return domain.ExperiencePurchase{}, fmt.Errorf("experience is not on sale: %w", domain.ErrConflict)
	}
	var amount int64
	if x.PriceCents != nil {
		amount = *x.PriceCents * int64(quantity)
	}
	p := domain.ExperiencePurchase{
		ID:           uuid.NewString(),
		ExperienceID: experienceID,
		UserID:       userID,
		Quantity:     quantity,
		AmountCents:  amount,
	}
	if err := s.res.CreatePurchase(ctx, p); err != nil {
		return domain.ExperiencePurchase{}, err
	}
	return p, nil
}

func (s *BookingService) ListPurchases(ctx context.Context, userID string, limit int) ([]domain.ExperiencePurchase, error) {
	return s.res.ListUserPurchases(ctx, userID, limit)
}
