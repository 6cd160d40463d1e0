package marketplace

import (
	"strconv"
	"strings"
	"time"

	"rentmatch/internal/domain"
)

// Stored listings come from many app versions, so field names drift. The
// alias lists below are the single source of truth for what we accept.
var recordAliases = map[string][]string{
	"id":           {"id", "property_id", "propertyId"},
	"owner":        {"owner_id", "ownerId", "owner.id", "user_id"},
	"title":        {"title", "name", "headline"},
	"price":        {"price", "rent", "monthly_price", "pricing.monthly"},
	"location":     {"location", "address", "city"},
	"neighborhood": {"neighborhood", "area", "district"},
	"rooms":        {"rooms", "bedrooms", "room_count"},
	"bathrooms":    {"bathrooms", "bathroom_count", "baths"},
	"living":       {"living_rooms", "livingRooms", "salons"},
	"size":         {"size", "size_sqm", "area_sqm", "square_meters"},
	"floor":        {"floor", "floor_label", "level"},
	"type":         {"property_type", "propertyType", "type"},
	"renovation":   {"renovation", "condition"},
	"description":  {"description", "details", "about"},
	"from":         {"available_from", "availableFrom", "availability.from"},
	"to":           {"available_to", "availableTo", "availability.to"},
	"image":        {"image_url", "imageUrl", "image"},
}

// mapRecord builds a PropertyRecord from a loosely-typed payload. Records
// without a usable id, or violating the catalog invariants, are dropped.
func mapRecord(p map[string]any) (domain.PropertyRecord, bool) {
	if p == nil {
		return domain.PropertyRecord{}, false
	}
	id := firstInt64(p, recordAliases["id"]...)
	if id == nil || *id <= 0 {
		return domain.PropertyRecord{}, false
	}

	rec := domain.PropertyRecord{
		ID:           *id,
		Title:        firstString(p, recordAliases["title"]...),
		Location:     firstString(p, recordAliases["location"]...),
		Neighborhood: firstString(p, recordAliases["neighborhood"]...),
		Floor:        firstString(p, recordAliases["floor"]...),
		PropertyType: strings.ToLower(firstString(p, recordAliases["type"]...)),
		Renovation:   strings.ToLower(firstString(p, recordAliases["renovation"]...)),
		Description:  firstString(p, recordAliases["description"]...),
		Amenities:    stringSlice(p, "amenities", "facilities"),
		ExtraRooms:   stringSlice(p, "extra_rooms", "additional_rooms"),
		PhotoURLs:    stringSlice(p, "photos", "images", "photo_urls"),
		ImageURL:     firstString(p, recordAliases["image"]...),
	}
	if v := firstInt64(p, recordAliases["owner"]...); v != nil {
		rec.OwnerID = *v
	}
	if f := firstFloat(p, recordAliases["price"]...); f != nil {
		rec.Price = *f
	}
	if f := firstFloat(p, recordAliases["size"]...); f != nil {
		rec.Size = *f
	}
	if v := firstInt64(p, recordAliases["rooms"]...); v != nil {
		rec.Rooms = int(*v)
	}
	if v := firstInt64(p, recordAliases["bathrooms"]...); v != nil {
		rec.Bathrooms = int(*v)
	}
	if v := firstInt64(p, recordAliases["living"]...); v != nil {
		rec.LivingRooms = int(*v)
	}
	if b, ok := lookup(p, "shelter").(bool); ok {
		rec.Shelter = b
	}
	rec.AvailableFrom = firstTime(p, recordAliases["from"]...)
	rec.AvailableTo = firstTime(p, recordAliases["to"]...)

	if !rec.Valid() {
		return domain.PropertyRecord{}, false
	}
	return rec, true
}

// lookup resolves a dot path against nested maps.
func lookup(m map[string]any, path string) any {
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

func firstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := lookup(m, p).(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

// firstFloat accepts float64/int/"8,0"-style strings.
func firstFloat(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookup(m, k).(type) {
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

func firstInt64(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookup(m, k).(type) {
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

func firstTime(m map[string]any, paths ...string) *time.Time {
	for _, k := range paths {
		s, ok := lookup(m, k).(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return &t
			}
		}
	}
	return nil
}

// stringSlice accepts []any holding strings or {url|src|name} objects.
func stringSlice(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		raw, ok := lookup(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case map[string]any:
				for _, field := range []string{"url", "src", "name"} {
					if u, ok := t[field].(string); ok && u != "" {
						out = append(out, u)
						break
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
