package mysql

const upsertRestaurantSQL = `
INSERT INTO restaurants
  (id, owner_id, name, cuisines, city, country, address_raw, lat, lon,
   price_level, rating, capacity, hours, hours_text, images, active, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  owner_id    = VALUES(owner_id),
  name        = VALUES(name),
  cuisines    = VALUES(cuisines),
  city        = VALUES(city),
  country     = VALUES(country),
  address_raw = VALUES(address_raw),
  lat         = VALUES(lat),
  lon         = VALUES(lon),
  price_level = VALUES(price_level),
  rating      = VALUES(rating),
  capacity    = VALUES(capacity),
  hours       = VALUES(hours),
  hours_text  = VALUES(hours_text),
  images      = VALUES(images),
  active      = VALUES(active),
  raw         = VALUES(raw),
  updated_at  = CURRENT_TIMESTAMP
`

const insertExperiencesPrefix = `INSERT INTO experiences
  (restaurant_id, source_id, title, description, price_cents, capacity, active, raw)
VALUES `

// COALESCE keeps the stored value when the feed sends NULL for a field it
// previously populated.
const insertExperiencesOnDup = ` ON DUPLICATE KEY UPDATE
  title       = COALESCE(VALUES(title), experiences.title),
  description = COALESCE(VALUES(description), experiences.description),
  price_cents = COALESCE(VALUES(price_cents), experiences.price_cents),
  capacity    = COALESCE(VALUES(capacity), experiences.capacity),
  active      = VALUES(active),
  raw         = COALESCE(VALUES(raw), experiences.raw)
`

const insertMissSQL = `
INSERT INTO feed_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getRestaurantSQL = `
SELECT
  id, owner_id, name, cuisines, city, country, address_raw,
  lat, lon, price_level, rating, capacity,
  hours, hours_text, images, active
FROM restaurants
WHERE id = ?
`

const listExperiencesSQL = `
SELECT id, restaurant_id, source_id, title, description, price_cents, capacity, active, raw
FROM experiences
WHERE restaurant_id = ? AND active = 1
ORDER BY id
`

const getExperienceSQL = `
SELECT id, restaurant_id, source_id, title, description, price_cents, capacity, active, raw
FROM experiences
WHERE id = ?
`

// -----------------------------------------------------------------------------
// RESERVATIONS / WAITLIST / PURCHASES
// -----------------------------------------------------------------------------

const insertReservationSQL = `
INSERT INTO reservations (id, restaurant_id, user_id, party_size, starts_at, status, note)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const getReservationSQL = `
SELECT id, restaurant_id, user_id, party_size, starts_at, status, note, created_at, updated_at
FROM reservations
WHERE id = ?
`

const listUserReservationsSQL = `
SELECT id, restaurant_id, user_id, party_size, starts_at, status, note, created_at, updated_at
FROM reservations
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const setReservationStatusSQL = `
UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

const insertWaitlistSQL = `
INSERT INTO waitlist (restaurant_id, user_id, party_size, status)
VALUES (?, ?, ?, ?)
`

const deleteWaitlistSQL = `
DELETE FROM waitlist WHERE restaurant_id = ? AND user_id = ?
`

// Position counts waiting parties that joined earlier (1-based).
const getWaitlistEntrySQL = `
SELECT w.id, w.restaurant_id, w.user_id, w.party_size, w.status, w.joined_at,
  (SELECT COUNT(*) + 1 FROM waitlist o
   WHERE o.restaurant_id = w.restaurant_id
     AND o.status = 'waiting'
     AND (o.joined_at < w.joined_at OR (o.joined_at = w.joined_at AND o.id < w.id))) AS position
FROM waitlist w
WHERE w.restaurant_id = ? AND w.user_id = ?
`

const insertPurchaseSQL = `
INSERT INTO purchases (id, experience_id, user_id, quantity, amount_cents)
VALUES (?, ?, ?, ?, ?)
`

const listUserPurchasesSQL = `
SELECT id, experience_id, user_id, quantity, amount_cents, created_at
FROM purchases
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// -----------------------------------------------------------------------------
// USERS / PHOTOS
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (id, email, password_hash, display_name, phone, avatar_id, dietary)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const getUserByEmailSQL = `
SELECT id, email, password_hash, display_name, phone, avatar_id, dietary, created_at, updated_at
FROM users
WHERE email = ?
`

const getUserByIDSQL = `
SELECT id, email, password_hash, display_name, phone, avatar_id, dietary, created_at, updated_at
FROM users
WHERE id = ?
`

const updateProfileSQL = `
UPDATE users SET
  display_name = COALESCE(?, display_name),
  phone        = COALESCE(?, phone),
  avatar_id    = COALESCE(?, avatar_id),
  dietary      = COALESCE(?, dietary),
  updated_at   = CURRENT_TIMESTAMP
WHERE id = ?
`

const insertPhotoSQL = `
INSERT INTO photos (id, owner_id, content_type, data)
VALUES (?, ?, ?, ?)
`

const getPhotoSQL = `
SELECT id, owner_id, content_type, data, created_at
FROM photos
WHERE id = ?
`

// -----------------------------------------------------------------------------
// MESSAGES
// -----------------------------------------------------------------------------

const insertMessageSQL = `
INSERT INTO messages (id, conversation_id, sender_id, recipient_id, body, sent_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// Newest N rows; the repo reverses them so callers get oldest first.
const listConversationSQL = `
SELECT id, conversation_id, sender_id, recipient_id, body, sent_at, read_flag
FROM messages
WHERE conversation_id = ?
ORDER BY id DESC
LIMIT ?
`

// Latest message per conversation the user participates in, plus how many
// of the peer's messages are still unread. ULID ids make MAX(id) the most
// recent message.
const listConversationsSQL = `
SELECT m.id, m.conversation_id, m.sender_id, m.recipient_id, m.body, m.sent_at, m.read_flag,
  (SELECT COUNT(*) FROM messages u
   WHERE u.conversation_id = m.conversation_id AND u.recipient_id = ? AND u.read_flag = 0) AS unread
FROM messages m
JOIN (
  SELECT conversation_id, MAX(id) AS max_id
  FROM messages
  WHERE sender_id = ? OR recipient_id = ?
  GROUP BY conversation_id
) t ON t.conversation_id = m.conversation_id AND t.max_id = m.id
ORDER BY m.id DESC
`

const markConversationReadSQL = `
UPDATE messages SET read_flag = 1
WHERE conversation_id = ? AND recipient_id = ? AND read_flag = 0
`
