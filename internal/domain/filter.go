package domain

import "time"

// Tristate expresses a required/excluded/don't-care constraint.
type Tristate int

const (
	TristateAny Tristate = iota
	TristateRequired
	TristateExcluded
)

// Property type and renovation enums. AnyX means the dimension is inactive.
const (
	TypeAny         = "any"
	TypeEntirePlace = "entire_place"
	TypeRoom        = "room"
	TypeSharedRoom  = "shared_room"

	RenovationAny       = "any"
	RenovationNew       = "new"
	RenovationRenovated = "renovated"
	RenovationNeedsWork = "needs_work"
)

// BedroomsSentinel in the Bedrooms set means "6 or more rooms".
const BedroomsSentinel = 6

// FilterSpec is a sparse set of optional constraints over the catalog. It is
// replaced wholesale on every user edit and sanitized before use; zero values
// mean the dimension is inactive.
type FilterSpec struct {
	Bedrooms      []int // set membership; 6 means rooms >= 6
	MinBathrooms  int
	LivingRoom    Tristate
	MinSize       float64
	MaxSize       float64
	MinPrice      float64
	MaxPrice      float64
	PropertyType  string
	Renovation    string
	Amenities     []string // fuzzy, case-insensitive, bidirectional containment
	Areas         []string // location/neighborhood substrings
	ExtraRooms    []string
	AvailableFrom *time.Time
	AvailableTo   *time.Time
}

// FilterResult is the value object produced by every filter application.
type FilterResult struct {
	Properties        []PropertyRecord
	TotalCount        int
	FilteredCount     int
	ActiveFilterCount int // populated dimensions, not predicates passed
}
