package mysql

import (
	"context"
	"database/sql"

	"tablebook/internal/domain"
)

func (r *Repo) CreateReservation(ctx context.Context, res domain.Reservation) error {
	_, err := r.db.ExecContext(ctx, insertReservationSQL,
		res.ID,
		res.RestaurantID,
		res.UserID,
		res.PartySize,
		res.StartsAt,
		res.Status,
		valStr(res.Note),
	)
	return mapErr(err)
}

func (r *Repo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx, getReservationSQL, id)
	res, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, mapErr(err)
	}
	return res, nil
}

func (r *Repo) ListUserReservations(ctx context.Context, userID string, limit int) ([]domain.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listUserReservationsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) SetReservationStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, setReservationStatusSQL, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var res domain.Reservation
	var note sql.NullString
	if err := row.Scan(
		&res.ID,
		&res.RestaurantID,
		&res.UserID,
		&res.PartySize,
		&res.StartsAt,
		&res.Status,
		&note,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return domain.Reservation{}, err
	}
	res.Note = nullStr(note)
	return res, nil
}

/********** waitlist **********/

func (r *Repo) JoinWaitlist(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	res, err := r.db.ExecContext(ctx, insertWaitlistSQL, e.RestaurantID, e.UserID, e.PartySize, e.Status)
	if err != nil {
		return domain.WaitlistEntry{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	e.ID = id
	return e, nil
}

func (r *Repo) LeaveWaitlist(ctx context.Context, restaurantID int64, userID string) error {
	res, err := r.db.ExecContext(ctx, deleteWaitlistSQL, restaurantID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetWaitlistEntry returns the caller's entry plus its 1-based position
// among still-waiting parties, ordered by join time.
func (r *Repo) GetWaitlistEntry(ctx context.Context, restaurantID int64, userID string) (domain.WaitlistEntry, int, error) {
	row := r.db.QueryRowContext(ctx, getWaitlistEntrySQL, restaurantID, userID)
	var e domain.WaitlistEntry
	var pos int
	if err := row.Scan(&e.ID, &e.RestaurantID, &e.UserID, &e.PartySize, &e.Status, &e.JoinedAt, &pos); err != nil {
		return domain.WaitlistEntry{}, 0, mapErr(err)
	}
	return e, pos, nil
}

/********** experience purchases **********/

func (r *Repo) CreatePurchase(ctx context.Context, p domain.ExperiencePurchase) error {
	_, err := r.db.ExecContext(ctx, insertPurchaseSQL, p.ID, p.ExperienceID, p.UserID, p.Quantity, p.AmountCents)
	return mapErr(err)
}

func (r *Repo) ListUserPurchases(ctx context.Context, userID string, limit int) ([]domain.ExperiencePurchase, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listUserPurchasesSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ExperiencePurchase
	for rows.Next() {
		var p domain.ExperiencePurchase
		if err := rows.Scan(&p.ID, &p.ExperienceID, &p.UserID, &p.Quantity, &p.AmountCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
