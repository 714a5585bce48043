package domain

// Restaurant is the normalized form of a partner-feed record. The feed has
// shipped several incompatible shapes over the years, so almost everything
// beyond the id is optional.
type Restaurant struct {
	ID         int64
	OwnerID    *string
	Name       *string
	Cuisines   []string
	City       *string
	Country    *string
	AddressRaw *string
	Lat, Lon   *float64
	PriceLevel *int
	Rating     *float64
	Capacity   *int
	Hours      []DayHours
	HoursText  *string // verbatim fallback when the feed sends hours as prose
	Images     []string
	Active     bool
	RawJSON    []byte // full feed payload
}

// DayHours is one day's opening window. Day is a lowercase three-letter
// weekday (mon..sun); Open/Close are "HH:MM".
type DayHours struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type Experience struct {
	ID           int64
	RestaurantID int64
	SourceID     *string
	Title        *string
	Description  *string
	PriceCents   *int64
	Capacity     *int
	Active       bool
	RawJSON      []byte
}
