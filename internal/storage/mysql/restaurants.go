package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"tablebook/internal/domain"
)

func (r *Repo) UpsertRestaurant(ctx context.Context, rest domain.Restaurant) error {
	cuis, _ := json.Marshal(rest.Cuisines)
	hrs, _ := json.Marshal(rest.Hours)
	imgs, _ := json.Marshal(rest.Images)
	_, err := r.db.ExecContext(ctx, upsertRestaurantSQL,
		rest.ID,
		valStr(rest.OwnerID),
		valStr(rest.Name),
		string(cuis),
		valStr(rest.City),
		valStr(rest.Country),
		valStr(rest.AddressRaw),
		valF64(rest.Lat),
		valF64(rest.Lon),
		valInt(rest.PriceLevel),
		valF64(rest.Rating),
		valInt(rest.Capacity),
		string(hrs),
		valStr(rest.HoursText),
		string(imgs),
		rest.Active,
		valJSON(rest.RawJSON),
	)
	return err
}

func (r *Repo) UpsertExperiences(ctx context.Context, xs []domain.Experience) error {
	if len(xs) == 0 {
		return nil
	}
	values := make([]string, 0, len(xs))
	args := make([]any, 0, len(xs)*8)
	for _, x := range xs {
		// Columns (from insertExperiencesPrefix):
		// (restaurant_id, source_id, title, description, price_cents, capacity, active, raw)
		values = append(values, "(?,?,?,?,?,?,?,?)")
		args = append(args,
			x.RestaurantID,
			valStr(x.SourceID),
			valStr(x.Title),
			valStr(x.Description),
			valInt64(x.PriceCents),
			valInt(x.Capacity),
			x.Active,
			valJSON(x.RawJSON),
		)
	}
	sqlStr := insertExperiencesPrefix + strings.Join(values, ",") + insertExperiencesOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogFeedMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) GetRestaurant(ctx context.Context, id int64) (domain.RestaurantView, error) {
	row := r.db.QueryRowContext(ctx, getRestaurantSQL, id)

	var rv domain.RestaurantView
	var owner sql.NullString
	var name, city, country, addr, hoursText sql.NullString
	var lat, lon, rating sql.NullFloat64
	var priceLevel, capacity sql.NullInt64
	var cuisJSON, hoursJSON, imagesJSON []byte

	if err := row.Scan(
		&rv.ID,
		&owner,
		&name,
		&cuisJSON,
		&city, &country, &addr,
		&lat, &lon,
		&priceLevel, &rating, &capacity,
		&hoursJSON, &hoursText,
		&imagesJSON,
		&rv.Active,
	); err != nil {
		return domain.RestaurantView{}, mapErr(err)
	}

	rv.Name = nullStr(name)
	rv.City = nullStr(city)
	rv.Country = nullStr(country)
	rv.Address = nullStr(addr)
	rv.HoursText = nullStr(hoursText)
	rv.PriceLevel = nullInt(priceLevel)
	rv.Capacity = nullInt(capacity)
	rv.Rating = nullF64(rating)
	if lat.Valid && lon.Valid {
		rv.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
	}
	_ = json.Unmarshal(cuisJSON, &rv.Cuisines)
	_ = json.Unmarshal(hoursJSON, &rv.Hours)
	_ = json.Unmarshal(imagesJSON, &rv.Images)
	return rv, nil
}

func (r *Repo) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	where := []string{"active = 1"}
	args := []any{}
	if q.City != nil && *q.City != "" {
		where = append(where, "LOWER(city) = ?")
		args = append(args, strings.ToLower(*q.City))
	}
	if q.Cuisine != nil && *q.Cuisine != "" {
		// cuisines is a JSON array of lowercase strings
		where = append(where, "JSON_CONTAINS(cuisines, JSON_QUOTE(?))")
		args = append(args, strings.ToLower(*q.Cuisine))
	}
	if q.Q != nil && *q.Q != "" {
		where = append(where, "(name LIKE ? OR address_raw LIKE ?)")
		like := "%" + *q.Q + "%"
		args = append(args, like, like)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, cuisines, city, country, lat, lon, price_level, rating, active
FROM restaurants
WHERE `+strings.Join(where, " AND ")+`
ORDER BY rating DESC, id
LIMIT ?`, args...)
	if err != nil {
		return domain.RestaurantsPage{}, err
	}
	defer rows.Close()

	var out []domain.RestaurantView
	for rows.Next() {
		var rv domain.RestaurantView
		var name, city, country sql.NullString
		var lat, lon, rating sql.NullFloat64
		var priceLevel sql.NullInt64
		var cuisJSON []byte
		if err := rows.Scan(&rv.ID, &name, &cuisJSON, &city, &country, &lat, &lon, &priceLevel, &rating, &rv.Active); err != nil {
			return domain.RestaurantsPage{}, err
		}
		rv.Name = nullStr(name)
		rv.City = nullStr(city)
		rv.Country = nullStr(country)
		rv.PriceLevel = nullInt(priceLevel)
		rv.Rating = nullF64(rating)
		if lat.Valid && lon.Valid {
			rv.Coords = &domain.Coords{Lat: lat.Float64, Lon: lon.Float64}
		}
		_ = json.Unmarshal(cuisJSON, &rv.Cuisines)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.RestaurantsPage{}, err
	}
	return domain.RestaurantsPage{Items: out}, nil
}

func (r *Repo) ListExperiences(ctx context.Context, restaurantID int64) ([]domain.Experience, error) {
	rows, err := r.db.QueryContext(ctx, listExperiencesSQL, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Experience
	for rows.Next() {
		x, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *Repo) GetExperience(ctx context.Context, id int64) (domain.Experience, error) {
	row := r.db.QueryRowContext(ctx, getExperienceSQL, id)
	x, err := scanExperience(row)
	if err != nil {
		return domain.Experience{}, mapErr(err)
	}
	return x, nil
}

type rowScanner interface{ Scan(dst ...any) error }

func scanExperience(row rowScanner) (domain.Experience, error) {
	var x domain.Experience
	var sourceID, title, desc sql.NullString
	var priceCents, capacity sql.NullInt64
	var raw []byte
	if err := row.Scan(&x.ID, &x.RestaurantID, &sourceID, &title, &desc, &priceCents, &capacity, &x.Active, &raw); err != nil {
		return domain.Experience{}, err
	}
	x.SourceID = nullStr(sourceID)
	x.Title = nullStr(title)
	x.Description = nullStr(desc)
	x.PriceCents = nullInt64(priceCents)
	x.Capacity = nullInt(capacity)
	x.RawJSON = raw
	return x, nil
}
