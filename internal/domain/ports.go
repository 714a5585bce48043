package domain

import "context"

type RestaurantRepository interface {
	// Write paths (ingestor)
	UpsertRestaurant(ctx context.Context, r Restaurant) error
	UpsertExperiences(ctx context.Context, xs []Experience) error
	LogFeedMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	GetRestaurant(ctx context.Context, id int64) (RestaurantView, error)
	ListRestaurants(ctx context.Context, q RestaurantsQuery) (RestaurantsPage, error)
	ListExperiences(ctx context.Context, restaurantID int64) ([]Experience, error)
	GetExperience(ctx context.Context, id int64) (Experience, error)
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, r Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListUserReservations(ctx context.Context, userID string, limit int) ([]Reservation, error)
	SetReservationStatus(ctx context.Context, id, status string) error

	JoinWaitlist(ctx context.Context, e WaitlistEntry) (WaitlistEntry, error)
	LeaveWaitlist(ctx context.Context, restaurantID int64, userID string) error
	GetWaitlistEntry(ctx context.Context, restaurantID int64, userID string) (WaitlistEntry, int, error)

	CreatePurchase(ctx context.Context, p ExperiencePurchase) error
	ListUserPurchases(ctx context.Context, userID string, limit int) ([]ExperiencePurchase, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u UserProfile) error
	GetUserByEmail(ctx context.Context, email string) (UserProfile, error)
	GetUserByID(ctx context.Context, id string) (UserProfile, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error

	SavePhoto(ctx context.Context, p Photo) error
	GetPhoto(ctx context.Context, id string) (Photo, error)
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, m Message) error
	ListConversation(ctx context.Context, conversationID string, limit int) ([]Message, error)
	ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) error
}

// FeedClient fetches raw partner-feed payloads. Shapes vary across feed
// generations, so everything comes back as loose maps for the mappers.
type FeedClient interface {
	GetRestaurant(ctx context.Context, id int64) (map[string]any, error)
	GetExperiences(ctx context.Context, id int64, count int) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type RestaurantView struct {
	ID         int64
	Name       *string
	Cuisines   []string
	City       *string
	Country    *string
	Address    *string
	Coords     *Coords
	PriceLevel *int
	Rating     *float64
	Capacity   *int
	Hours      []DayHours
	HoursText  *string
	Images     []string
	Active     bool
}

type Coords struct{ Lat, Lon float64 }

type RestaurantsQuery struct {
	Q       *string
	City    *string
	Cuisine *string
	Limit   int
}

type RestaurantsPage struct {
	Items      []RestaurantView
	NextCursor *string
}
