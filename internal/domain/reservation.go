package domain

import "time"

const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

type Reservation struct {
	ID           string // uuid
	RestaurantID int64
	UserID       string
	PartySize    int
	StartsAt     time.Time
	Status       string
	Note         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	WaitlistWaiting  = "waiting"
	WaitlistNotified = "notified"
	WaitlistSeated   = "seated"
	WaitlistLeft     = "left"
)

type WaitlistEntry struct {
	ID           int64
	RestaurantID int64
	UserID       string
	PartySize    int
	Status       string
	JoinedAt     time.Time
}

type ExperiencePurchase struct {
	ID           string // uuid
	ExperienceID int64
	UserID       string
	Quantity     int
	AmountCents  int64
	CreatedAt    time.Time
}
