package app

import (
	"strings"

	"github.com/rs/zerolog"

	"rentmatch/internal/adapters/observability"
	"rentmatch/internal/domain"
)

// FailurePolicy decides what a catalog read failure does to the filter path.
// FailOpen degrades to an empty result with a logged warning; FailClosed
// surfaces the wrapped collaborator error to the caller.
type FailurePolicy int

const (
	FailOpen FailurePolicy = iota
	FailClosed
)

func ParseFailurePolicy(s string) FailurePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "closed") {
		return FailClosed
	}
	return FailOpen
}

// Sanitization bounds.
const (
	minBedrooms  = 1
	maxBedrooms  = 10
	maxBathrooms = 10
)

// FilterEngine validates, sanitizes, and applies filter specifications.
// Apply and Sanitize are pure; the engine holds no per-request state.
type FilterEngine struct {
	policy FailurePolicy
	log    zerolog.Logger
}

func NewFilterEngine(policy FailurePolicy, log zerolog.Logger) *FilterEngine {
	return &FilterEngine{policy: policy, log: log}
}

// Sanitize clamps numeric fields to sane bounds, drops unknown enum values,
// and resolves min/max conflicts by discarding the minimum (max wins). The
// input spec is not mutated; a sanitized copy is returned.
func (e *FilterEngine) Sanitize(spec domain.FilterSpec) domain.FilterSpec {
	out := spec

	if len(spec.Bedrooms) > 0 {
		beds := make([]int, 0, len(spec.Bedrooms))
		seen := make(map[int]bool, len(spec.Bedrooms))
		for _, b := range spec.Bedrooms {
			if b < minBedrooms {
				b = minBedrooms
			}
			if b > maxBedrooms {
				b = maxBedrooms
			}
			// 10-room entries behave like the 6+ sentinel anyway; keep the
			// clamped value so membership stays a plain set check.
			if !seen[b] {
				seen[b] = true
				beds = append(beds, b)
			}
		}
		out.Bedrooms = beds
	}

	if out.MinBathrooms < 0 {
		out.MinBathrooms = 0
	}
	if out.MinBathrooms > maxBathrooms {
		out.MinBathrooms = maxBathrooms
	}

	if out.MinSize < 0 {
		out.MinSize = 0
	}
	if out.MaxSize < 0 {
		out.MaxSize = 0
	}
	if out.MinSize > 0 && out.MaxSize > 0 && out.MinSize > out.MaxSize {
		out.MinSize = 0
	}

	if out.MinPrice < 0 {
		out.MinPrice = 0
	}
	if out.MaxPrice < 0 {
		out.MaxPrice = 0
	}
	if out.MinPrice > 0 && out.MaxPrice > 0 && out.MinPrice > out.MaxPrice {
		out.MinPrice = 0
	}

	out.PropertyType = sanitizeEnum(spec.PropertyType,
		domain.TypeEntirePlace, domain.TypeRoom, domain.TypeSharedRoom)
	out.Renovation = sanitizeEnum(spec.Renovation,
		domain.RenovationNew, domain.RenovationRenovated, domain.RenovationNeedsWork)

	out.Amenities = cleanList(spec.Amenities)
	out.Areas = cleanList(spec.Areas)
	out.ExtraRooms = cleanList(spec.ExtraRooms)

	if out.AvailableFrom != nil && out.AvailableTo != nil && out.AvailableFrom.After(*out.AvailableTo) {
		out.AvailableFrom = nil
	}

	return out
}

// Apply narrows the catalog by the free-text query and each populated
// dimension of spec. Output order follows catalog order; no re-sort.
func (e *FilterEngine) Apply(catalog []domain.PropertyRecord, query string, spec domain.FilterSpec) domain.FilterResult {
	res := domain.FilterResult{
		TotalCount:        len(catalog),
		ActiveFilterCount: activeDimensions(spec),
	}

	query = strings.ToLower(strings.TrimSpace(query))
	for _, p := range catalog {
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if !matchesSpec(p, spec) {
			continue
		}
		res.Properties = append(res.Properties, p)
	}
	res.FilteredCount = len(res.Properties)

	outcome := "matched"
	if res.FilteredCount == 0 {
		outcome = "empty"
	}
	observability.ObserveFilter(outcome)
	return res
}

// Degrade applies the failure policy to a catalog read error. Fail-open
// returns an empty result and swallows the error; fail-closed passes it
// through untouched.
func (e *FilterEngine) Degrade(err error) (domain.FilterResult, error) {
	if e.policy == FailClosed {
		return domain.FilterResult{}, err
	}
	e.log.Warn().Err(err).Msg("catalog read failed, degrading to empty filter result")
	observability.ObserveFilter("degraded")
	return domain.FilterResult{}, nil
}

func sanitizeEnum(v string, known ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, k := range known {
		if v == k {
			return v
		}
	}
	return domain.TypeAny
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// activeDimensions counts populated filter dimensions, not predicates passed.
// A min/max pair is one dimension, as is each list.
func activeDimensions(spec domain.FilterSpec) int {
	n := 0
	if len(spec.Bedrooms) > 0 {
		n++
	}
	if spec.MinBathrooms > 0 {
		n++
	}
	if spec.LivingRoom != domain.TristateAny {
		n++
	}
	if spec.MinSize > 0 || spec.MaxSize > 0 {
		n++
	}
	if spec.MinPrice > 0 || spec.MaxPrice > 0 {
		n++
	}
	if spec.PropertyType != "" && spec.PropertyType != domain.TypeAny {
		n++
	}
	if spec.Renovation != "" && spec.Renovation != domain.RenovationAny {
		n++
	}
	if len(spec.Amenities) > 0 {
		n++
	}
	if len(spec.Areas) > 0 {
		n++
	}
	if len(spec.ExtraRooms) > 0 {
		n++
	}
	if spec.AvailableFrom != nil || spec.AvailableTo != nil {
		n++
	}
	return n
}

func matchesQuery(p domain.PropertyRecord, q string) bool {
	for _, field := range []string{p.Title, p.Location, p.Description, p.PropertyType} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func matchesSpec(p domain.PropertyRecord, spec domain.FilterSpec) bool {
	if len(spec.Bedrooms) > 0 && !matchesBedrooms(p.Rooms, spec.Bedrooms) {
		return false
	}
	// Missing numeric fields are zero: they fail an active minimum but never
	// fail a maximum.
	if spec.MinBathrooms > 0 && p.Bathrooms < spec.MinBathrooms {
		return false
	}
	switch spec.LivingRoom {
	case domain.TristateRequired:
		if p.LivingRooms == 0 {
			return false
		}
	case domain.TristateExcluded:
		if p.LivingRooms > 0 {
			return false
		}
	}
	if spec.MinSize > 0 && p.Size < spec.MinSize {
		return false
	}
	if spec.MaxSize > 0 && p.Size > spec.MaxSize {
		return false
	}
	if spec.MinPrice > 0 && p.Price < spec.MinPrice {
		return false
	}
	if spec.MaxPrice > 0 && p.Price > spec.MaxPrice {
		return false
	}
	if spec.PropertyType != "" && spec.PropertyType != domain.TypeAny && p.PropertyType != spec.PropertyType {
		return false
	}
	if spec.Renovation != "" && spec.Renovation != domain.RenovationAny && p.Renovation != spec.Renovation {
		return false
	}
	for _, want := range spec.Amenities {
		if !containsFuzzy(p.Amenities, want) {
			return false
		}
	}
	if len(spec.Areas) > 0 && !matchesArea(p, spec.Areas) {
		return false
	}
	for _, want := range spec.ExtraRooms {
		if !containsFuzzy(p.ExtraRooms, want) {
			return false
		}
	}
	if spec.AvailableFrom != nil {
		if p.AvailableFrom == nil || p.AvailableFrom.After(*spec.AvailableFrom) {
			return false
		}
	}
	if spec.AvailableTo != nil {
		// A record without an end date never fails the availability maximum.
		if p.AvailableTo != nil && p.AvailableTo.Before(*spec.AvailableTo) {
			return false
		}
	}
	return true
}

func matchesBedrooms(rooms int, set []int) bool {
	for _, want := range set {
		if want >= domain.BedroomsSentinel {
			if rooms >= domain.BedroomsSentinel {
				return true
			}
			continue
		}
		if rooms == want {
			return true
		}
	}
	return false
}

// containsFuzzy: case-insensitive substring match in either direction, so
// "balcony" matches "Large Balcony" and "large balcony" matches "balcony".
func containsFuzzy(haystack []string, want string) bool {
	w := strings.ToLower(strings.TrimSpace(want))
	if w == "" {
		return true
	}
	for _, h := range haystack {
		hl := strings.ToLower(strings.TrimSpace(h))
		if hl == "" {
			continue
		}
		if strings.Contains(hl, w) || strings.Contains(w, hl) {
			return true
		}
	}
	return false
}

// matchesArea: the record passes when any requested area appears in its
// location or neighborhood.
func matchesArea(p domain.PropertyRecord, areas []string) bool {
	loc := strings.ToLower(p.Location)
	hood := strings.ToLower(p.Neighborhood)
	for _, a := range areas {
		al := strings.ToLower(strings.TrimSpace(a))
		if al == "" {
			continue
		}
		if strings.Contains(loc, al) || strings.Contains(hood, al) {
			return true
		}
	}
	return false
}
