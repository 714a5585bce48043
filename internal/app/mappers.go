package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"tablebook/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The feed has shipped at least three generations of record shapes; each
// alias list is ordered newest-first.
var restaurantAliases = map[string][]string{
	"id":       {"restaurant_id", "restaurantId", "id", "venue_id"},
	"owner":    {"owner_id", "ownerId", "owner.id", "merchant_id"},
	"name":     {"name", "restaurant_name", "venue_name", "title"},
	"city":     {"address.city", "city", "locality", "town"},
	"country":  {"address.country", "country", "country_code", "countryCode"},
	"capacity": {"capacity", "total_capacity", "totalCapacity", "seats"},
}

var experienceAliases = map[string][]string{
	"id":          {"experience_id", "experienceId", "id"},
	"title":       {"title", "name", "headline"},
	"description": {"description", "details", "summary", "body"},
	"price":       {"price_cents", "priceCents", "price.cents", "amount_cents"},
	"capacity":    {"capacity", "seats", "max_guests", "maxGuests"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

func firstIntFlexible(m map[string]any, paths ...string) *int {
	if v := firstInt64Flexible(m, paths...); v != nil {
		x := int(*v)
		return &x
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** cuisine coalescing **********/

// cuisines accepts either a list ("cuisines": ["italian","pizza"]) or a
// bare string ("cuisine": "italian / pizza"), splitting the string form on
// commas and slashes.
func cuisines(m map[string]any) []string {
	if xs := firstSliceStrings(m, "cuisines", "cuisine", "categories", "tags"); len(xs) > 0 {
		out := make([]string, 0, len(xs))
		for _, c := range xs {
			if t := normCuisine(c); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	for _, p := range []string{"cuisine", "cuisine_type", "cuisineType", "category"} {
		if s := lookupStr(m, p); s != "" {
			return splitCuisines(s)
		}
	}
	return nil
}

func splitCuisines(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == '|' }) {
		if t := normCuisine(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func normCuisine(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

/********** hours coalescing **********/

var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var weekdayAliases = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tues": "tue", "tuesday": "tue",
	"wed": "wed", "weds": "wed", "wednesday": "wed",
	"thu": "thu", "thur": "thu", "thurs": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// hours normalizes the three feed shapes:
//   - structured map: {"mon":{"open":"09:00","close":"22:00"}, ...} or
//     {"monday":"09:00-22:00", ...}
//   - array of {day, open, close}
//   - bare prose string ("Mon-Fri 09:00-22:00; Sat 10:00-23:00")
//
// The prose form is parsed best-effort and always kept verbatim so the UI
// can fall back to displaying it.
func hours(m map[string]any) ([]domain.DayHours, *string) {
	for _, p := range []string{"hours", "opening_hours", "openingHours", "schedule"} {
		switch v := lookupAny(m, p).(type) {
		case map[string]any:
			if hs := hoursFromMap(v); len(hs) > 0 {
				return hs, nil
			}
		case []any:
			if hs := hoursFromList(v); len(hs) > 0 {
				return hs, nil
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return hoursFromText(s), &s
			}
		}
	}
	// oldest shape: flat openTime/closeTime applied to daysOpen
	open, close := lookupStr(m, "openTime"), lookupStr(m, "closeTime")
	if open != "" && close != "" {
		days := firstSliceStrings(m, "daysOpen", "days_open")
		if len(days) == 0 {
			days = weekdays
		}
		var out []domain.DayHours
		for _, d := range days {
			if day, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(d))]; ok {
				out = append(out, domain.DayHours{Day: day, Open: normClock(open), Close: normClock(close)})
			}
		}
		return out, nil
	}
	return nil, nil
}

func hoursFromMap(m map[string]any) []domain.DayHours {
	var out []domain.DayHours
	for _, day := range weekdays { // stable order
		var raw any
		for k, v := range m {
			if weekdayAliases[strings.ToLower(k)] == day {
				raw = v
				break
			}
		}
		switch t := raw.(type) {
		case map[string]any:
			open := firstClock(t, "open", "opens", "from", "start")
			close := firstClock(t, "close", "closes", "to", "end")
			if open != "" && close != "" {
				out = append(out, domain.DayHours{Day: day, Open: open, Close: close})
			}
		case string:
			if open, close, ok := splitWindow(t); ok {
				out = append(out, domain.DayHours{Day: day, Open: open, Close: close})
			}
		}
	}
	return out
}

func hoursFromList(raw []any) []domain.DayHours {
	var out []domain.DayHours
	for _, it := range raw {
		e, ok := it.(map[string]any)
		if !ok {
			continue
		}
		day, ok := weekdayAliases[strings.ToLower(lookupStr(e, "day"))]
		if !ok {
			continue
		}
		open := firstClock(e, "open", "opens", "from", "start")
		close := firstClock(e, "close", "closes", "to", "end")
		if open != "" && close != "" {
			out = append(out, domain.DayHours{Day: day, Open: open, Close: close})
		}
	}
	return out
}

// hoursFromText handles segments like "Mon-Fri 09:00-22:00" separated by
// ";" or ",". Segments it cannot read are skipped; the caller keeps the
// verbatim text as a fallback.
func hoursFromText(s string) []domain.DayHours {
	var out []domain.DayHours
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		fields := strings.Fields(strings.TrimSpace(seg))
		if len(fields) < 2 {
			continue
		}
		days := expandDayRange(fields[0])
		open, close, ok := splitWindow(strings.Join(fields[1:], ""))
		if !ok {
			continue
		}
		for _, d := range days {
			out = append(out, domain.DayHours{Day: d, Open: open, Close: close})
		}
	}
	return out
}

// expandDayRange turns "Mon-Fri" into [mon tue wed thu fri], "Sat" into [sat].
func expandDayRange(s string) []string {
	lo, hi, found := strings.Cut(strings.ToLower(s), "-")
	a, okA := weekdayAliases[strings.TrimSpace(lo)]
	if !found {
		if okA {
			return []string{a}
		}
		return nil
	}
	b, okB := weekdayAliases[strings.TrimSpace(hi)]
	if !okA || !okB {
		return nil
	}
	ai, bi := dayIndex(a), dayIndex(b)
	if ai < 0 || bi < 0 || bi < ai {
		return nil
	}
	return weekdays[ai : bi+1]
}

func dayIndex(d string) int {
	for i, w := range weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// splitWindow reads "09:00-22:00" (also "9am-10pm") into open/close.
func splitWindow(s string) (string, string, bool) {
	a, b, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return "", "", false
	}
	open, close := normClock(a), normClock(b)
	if open == "" || close == "" {
		return "", "", false
	}
	return open, close, true
}

func firstClock(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := lookupStr(m, k); s != "" {
			if c := normClock(s); c != "" {
				return c
			}
		}
	}
	return ""
}

// normClock normalizes "9", "9:30", "9am", "9:30pm" into "HH:MM".
// Anything it cannot read yields "".
func normClock(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	pm := strings.HasSuffix(s, "pm")
	am := strings.HasSuffix(s, "am")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "pm"), "am")
	s = strings.TrimSpace(s)

	hs, ms, found := strings.Cut(s, ":")
	if !found {
		ms = "0"
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return ""
	}
	min, err := strconv.Atoi(strings.TrimSpace(ms))
	if err != nil {
		return ""
	}
	if pm && h < 12 {
		h += 12
	}
	if am && h == 12 {
		h = 0
	}
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, min)
}

/********** restaurant mapper **********/

// mapRestaurant normalizes one feed payload. feedID is the id the record
// was fetched under; the oldest feed generation keyed records by owner and
// carried no id field at all, so feedID wins when the payload has none.
func mapRestaurant(feedID int64, p map[string]any) domain.Restaurant {
	id := feedID
	if v := firstInt64Flexible(p, restaurantAliases["id"]...); v != nil && *v > 0 {
		id = *v
	}

	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("context", "mapRestaurant").Msg("failed to marshal payload")
	}

	hs, hsText := hours(p)

	r := domain.Restaurant{
		ID:       id,
		OwnerID:  firstNonEmptyAlias(p, restaurantAliases, "owner"),
		Name:     firstNonEmptyAlias(p, restaurantAliases, "name"),
		Cuisines: cuisines(p),
		City:     firstNonEmptyAlias(p, restaurantAliases, "city"),
		Country:  firstNonEmptyAlias(p, restaurantAliases, "country"),
		Lat:      getFloatFlexible(p, "latitude", "lat", "location.lat"),
		Lon:      getFloatFlexible(p, "longitude", "lon", "lng", "location.lon", "location.lng"),
		Rating:   getFloatFlexible(p, "rating", "rating.value", "scores.overall", "average_rating"),
		PriceLevel: func() *int {
			if f := getFloatFlexible(p, "price_level", "priceLevel", "price"); f != nil {
				x := int(*f)
				return &x
			}
			return nil
		}(),
		Capacity:  firstIntFlexible(p, restaurantAliases["capacity"]...),
		Hours:     hs,
		HoursText: hsText,
		Images:    firstSliceStrings(p, "photos", "images", "gallery"),
		Active:    activeFlag(p),
		RawJSON:   raw,
	}

	r.AddressRaw = address(p)
	return r
}

// activeFlag defaults to true: the older feed shapes had no flag and only
// listed live venues.
func activeFlag(p map[string]any) bool {
	for _, k := range []string{"active", "is_active", "isActive", "live"} {
		if b, ok := lookupAny(p, k).(bool); ok {
			return b
		}
	}
	if s := lookupStr(p, "status"); s != "" {
		switch strings.ToLower(s) {
		case "active", "live", "open":
			return true
		case "inactive", "closed", "suspended", "delisted":
			return false
		}
	}
	return true
}

func address(p map[string]any) *string {
	// 1) Known single-field aliases first
	if s := firstNonEmptyAlias(p, map[string][]string{
		"addr": {
			"address_raw",
			"address",
			"address.line",
			"full_address",
			"location.address",
			"formatted_address",
		},
	}, "addr"); s != nil && *s != "" {
		return s
	}

	// 2) Compose from components if no single field is present
	parts := []string{
		lookupStr(p, "address.addressLine1"),
		lookupStr(p, "address.addressLine2"),
		lookupStr(p, "address.street"),
		lookupStr(p, "address.district"),
		lookupStr(p, "address.city"),
		lookupStr(p, "address.state"),
		lookupStr(p, "address.postcode"),
		lookupStr(p, "address.zip"),
		lookupStr(p, "address.country"),
		// sometimes flattened at the root:
		lookupStr(p, "street"),
		lookupStr(p, "city"),
		lookupStr(p, "postcode"),
		lookupStr(p, "zip"),
		lookupStr(p, "country"),
	}
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return ptrStr(strings.Join(nonEmpty, ", "))
}

/********** experience mapper **********/

func mapExperiences(restaurantID int64, in []map[string]any) []domain.Experience {
	out := make([]domain.Experience, 0, len(in))
	for _, e := range in {
		var x domain.Experience
		x.RestaurantID = restaurantID

		if s := firstNonEmptyAlias(e, experienceAliases, "id"); s != nil {
			x.SourceID = s
		} else if v := firstInt64Flexible(e, experienceAliases["id"]...); v != nil {
			s := strconv.FormatInt(*v, 10)
			x.SourceID = &s
		}

		x.Title = firstNonEmptyAlias(e, experienceAliases, "title")
		x.Description = firstNonEmptyAlias(e, experienceAliases, "description")

		// Price: cents when given as such, otherwise a decimal amount.
		if v := firstInt64Flexible(e, experienceAliases["price"]...); v != nil {
			x.PriceCents = v
		} else if f := getFloatFlexible(e, "price", "amount", "cost"); f != nil {
			c := int64(*f * 100)
			x.PriceCents = &c
		}

		x.Capacity = firstIntFlexible(e, experienceAliases["capacity"]...)
		x.Active = activeFlag(e)

		// SourceID drives the (restaurant_id, source_id) upsert key, and MySQL
		// unique indexes skip NULLs. Synthesize a stable hash over the content
		// fields so id-less records update in place across runs.
		if x.SourceID == nil {
			price := ""
			if x.PriceCents != nil {
				price = strconv.FormatInt(*x.PriceCents, 10)
			}
			sig := strings.Join([]string{deref(x.Title), deref(x.Description), price}, "|")
			sum := sha1.Sum([]byte(sig))
			id := hex.EncodeToString(sum[:])
			x.SourceID = &id
		}

		if raw, err := json.Marshal(e); err == nil {
			x.RawJSON = raw
		} else {
			log.Error().Err(err).Str("context", "mapExperiences").Msg("marshal experience failed")
		}

		out = append(out, x)
	}
	return out
}
