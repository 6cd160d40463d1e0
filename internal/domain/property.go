package domain

import "time"

// PropertyRecord is an immutable snapshot of a published listing. Updates
// replace the record wholesale; nothing mutates one in place.
type PropertyRecord struct {
	ID            int64
	OwnerID       int64
	Title         string
	Price         float64 // currency-free
	Location      string
	Neighborhood  string
	Rooms         int
	Bathrooms     int
	LivingRooms   int
	Size          float64 // m²
	Floor         string
	Shelter       bool
	PropertyType  string // entire_place|room|shared_room, empty when untagged
	Renovation    string // new|renovated|needs_work, empty when untagged
	Description   string
	Amenities     []string
	ExtraRooms    []string
	AvailableFrom *time.Time
	AvailableTo   *time.Time
	PhotoURLs     []string
	ImageURL      string // legacy single-image field
}

// Photos returns the photo sequence, falling back to the legacy image URL so
// callers always see at least one entry for a record that has any image.
func (p PropertyRecord) Photos() []string {
	if len(p.PhotoURLs) > 0 {
		return p.PhotoURLs
	}
	if p.ImageURL != "" {
		return []string{p.ImageURL}
	}
	return nil
}

// Valid reports whether the record satisfies the catalog invariants.
// Ingestion skips invalid records rather than failing the whole read.
func (p PropertyRecord) Valid() bool {
	return p.ID > 0 && p.Rooms >= 0 && p.Bathrooms >= 0 && p.Size >= 0
}
