package domain

import "time"

type UserProfile struct {
	ID           string // uuid
	Email        string
	PasswordHash string `json:"-"`
	DisplayName  *string
	Phone        *string
	AvatarID     *string
	Dietary      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries only the fields a user may change; nil means keep.
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	AvatarID    *string
	Dietary     []string
}

type Photo struct {
	ID          string // uuid
	OwnerID     string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
