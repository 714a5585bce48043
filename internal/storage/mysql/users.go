package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"tablebook/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u domain.UserProfile) error {
	diet, _ := json.Marshal(u.Dietary)
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		u.ID,
		u.Email,
		u.PasswordHash,
		valStr(u.DisplayName),
		valStr(u.Phone),
		valStr(u.AvatarID),
		string(diet),
	)
	return mapErr(err)
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return r.getUser(ctx, getUserByEmailSQL, email)
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (domain.UserProfile, error) {
	return r.getUser(ctx, getUserByIDSQL, id)
}

func (r *Repo) getUser(ctx context.Context, query, arg string) (domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var u domain.UserProfile
	var displayName, phone, avatarID sql.NullString
	var dietJSON []byte
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&displayName,
		&phone,
		&avatarID,
		&dietJSON,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return domain.UserProfile{}, mapErr(err)
	}
	u.DisplayName = nullStr(displayName)
	u.Phone = nullStr(phone)
	u.AvatarID = nullStr(avatarID)
	_ = json.Unmarshal(dietJSON, &u.Dietary)
	return u, nil
}

// UpdateProfile only touches the columns the update carries; COALESCE keeps
// the stored value when the new one is NULL.
func (r *Repo) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	var diet any
	if upd.Dietary != nil {
		b, _ := json.Marshal(upd.Dietary)
		diet = string(b)
	}
	res, err := r.db.ExecContext(ctx, updateProfileSQL,
		valStr(upd.DisplayName),
		valStr(upd.Phone),
		valStr(upd.AvatarID),
		diet,
		id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for no-op updates too; distinguish a missing row.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

/********** photos **********/

func (r *Repo) SavePhoto(ctx context.Context, p domain.Photo) error {
	_, err := r.db.ExecContext(ctx, insertPhotoSQL, p.ID, p.OwnerID, p.ContentType, p.Data)
	return mapErr(err)
}

func (r *Repo) GetPhoto(ctx context.Context, id string) (domain.Photo, error) {
	row := r.db.QueryRowContext(ctx, getPhotoSQL, id)
	var p domain.Photo
	if err := row.Scan(&p.ID, &p.OwnerID, &p.ContentType, &p.Data, &p.CreatedAt); err != nil {
		return domain.Photo{}, mapErr(err)
	}
	return p, nil
}
