package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tablebook/internal/auth"
	"tablebook/internal/domain"
)

type ProfileService struct {
	users         domain.UserRepository
	maxPhotoBytes int
}

func NewProfileService(users domain.UserRepository, maxPhotoKB int) *ProfileService {
	return &ProfileService{users: users, maxPhotoBytes: maxPhotoKB * 1024}
}

func (s *ProfileService) Register(ctx context.Context, email, password string, displayName *string) (domain.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.UserProfile{}, fmt.Errorf("invalid email: %w", domain.ErrConflict)
	}
	if len(password) < 8 {
		return domain.UserProfile{}, fmt.Errorf("password too short: %w", domain.ErrConflict)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.UserProfile{}, err
	}
	u := domain.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return domain.UserProfile{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Authenticate returns ErrForbidden for both unknown emails and wrong
// passwords so the two cases are indistinguishable to a caller.
func (s *ProfileService) Authenticate(ctx context.Context, email, password string) (domain.UserProfile, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.UserProfile{}, domain.ErrForbidden
	}
	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return domain.UserProfile{}, domain.ErrForbidden
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.UserProfile, error) {
	if upd.AvatarID != nil {
		// the avatar must be a photo this user uploaded
		p, err := s.users.GetPhoto(ctx, *upd.AvatarID)
		if err != nil {
			return domain.UserProfile{}, err
		}
		if p.OwnerID != userID {
			return domain.UserProfile{}, domain.ErrForbidden
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		return domain.UserProfile{}, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *ProfileService) UploadPhoto(ctx context.Context, ownerID, contentType string, data []byte) (domain.Photo, error) {
	if len(data) == 0 {
		return domain.Photo{}, fmt.Errorf("empty upload: %w", domain.ErrConflict)
	}
	if len(data) > s.maxPhotoBytes {
		return domain.Photo{}, fmt.Errorf("photo exceeds %d bytes: %w", s.maxPhotoBytes, domain.ErrConflict)
	}
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return domain.Photo{}, fmt.Errorf("unsupported content type %q: %w", contentType, domain.ErrConflict)
	}
	p := domain.Photo{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		ContentType: contentType,
		Data:        data,
	}
	if err := s.users.SavePhoto(ctx, p); err != nil {
		return domain.Photo{}, err
	}
	return p, nil
}

func (s *ProfileService) GetPhoto(ctx context.Context, id string) (domain.Photo, error) {
	return s.users.GetPhoto(ctx, id)
}
