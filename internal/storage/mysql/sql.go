package mysql

const upsertPropertySQL = `
INSERT INTO properties
  (id, owner_id, title, price, location, neighborhood, rooms, bathrooms,
   living_rooms, size, floor, shelter, property_type, renovation, description,
   amenities, extra_rooms, photos, image_url, available_from, available_to)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  owner_id       = VALUES(owner_id),
  title          = VALUES(title),
  price          = VALUES(price),
  location       = VALUES(location),
  neighborhood   = VALUES(neighborhood),
  rooms          = VALUES(rooms),
  bathrooms      = VALUES(bathrooms),
  living_rooms   = VALUES(living_rooms),
  size           = VALUES(size),
  floor          = VALUES(floor),
  shelter        = VALUES(shelter),
  property_type  = VALUES(property_type),
  renovation     = VALUES(renovation),
  description    = VALUES(description),
  amenities      = VALUES(amenities),
  extra_rooms    = VALUES(extra_rooms),
  photos         = VALUES(photos),
  image_url      = VALUES(image_url),
  available_from = VALUES(available_from),
  available_to   = VALUES(available_to),
  updated_at     = CURRENT_TIMESTAMP
`

const propertyColumns = `
  id, owner_id, title, price, location, neighborhood, rooms, bathrooms,
  living_rooms, size, floor, shelter, property_type, renovation, description,
  amenities, extra_rooms, photos, image_url, available_from, available_to`

const listPublishedSQL = `SELECT` + propertyColumns + `
FROM properties
ORDER BY id`

const getPropertySQL = `SELECT` + propertyColumns + `
FROM properties
WHERE id = ?`

const insertNegotiationSQL = `
INSERT INTO negotiations
  (property_id, renter_id, owner_id, from_date, to_date, message, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateNegotiationSQL = `
UPDATE negotiations
SET status = ?, updated_at = ?
WHERE id = ?
`

const deleteNegotiationSQL = `DELETE FROM negotiations WHERE id = ?`

const negotiationColumns = `
  id, property_id, renter_id, owner_id, from_date, to_date, message, status, created_at, updated_at`

const listNegotiationsSQL = `SELECT` + negotiationColumns + `
FROM negotiations
WHERE renter_id = ?
ORDER BY created_at DESC, id DESC`

// Most recent negotiation for the pair regardless of status.
const getByCandidateSQL = `SELECT` + negotiationColumns + `
FROM negotiations
WHERE renter_id = ? AND property_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

const insertMessageSQL = `
INSERT INTO messages (negotiation_id, sender_id, recipient_id, body, sent_at)
VALUES (?, ?, ?, ?, ?)
`

const listThreadSQL = `
SELECT id, negotiation_id, sender_id, recipient_id, body, sent_at
FROM messages
WHERE negotiation_id = ?
ORDER BY sent_at, id
`

const negotiationPartiesSQL = `SELECT renter_id, owner_id FROM negotiations WHERE id = ?`

const addFavoriteSQL = `
INSERT IGNORE INTO favorites (renter_id, property_id) VALUES (?, ?)
`

const removeFavoriteSQL = `DELETE FROM favorites WHERE renter_id = ? AND property_id = ?`

const hasFavoriteSQL = `SELECT 1 FROM favorites WHERE renter_id = ? AND property_id = ?`
