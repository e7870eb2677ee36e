package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Display defaults applied by Normalize.
const (
	DefaultLocation    = "Unknown Location"
	DefaultDescription = "No description available"
	DefaultStat        = "N/A"
	DefaultCardPhoto   = "assets/images/BMC_Logo.png"

	cardDescriptionLimit = 100
)

// derivedIDSpace namespaces the ids given to stored records that have none.
var derivedIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bmc-trip"))

// DerivedID names a record that was stored without an id. It depends only on
// the stored content, so the same record gets the same id on every load.
func DerivedID(t Trip) string {
	key := strings.Join([]string{
		t.Location,
		t.Date.String(),
		t.DateAdded.UTC().Format(time.RFC3339Nano),
		t.Description,
	}, "\x00")
	return uuid.NewSHA1(derivedIDSpace, []byte(key)).String()
}

// Normalize guarantees every display field is present. It never touches the
// store; the list controller calls it on whatever it loaded.
func Normalize(t Trip, today time.Time) Trip {
	n := t.Clone()
	if n.ID == "" {
		n.ID = DerivedID(t)
	}
	if n.Location == "" {
		n.Location = DefaultLocation
	}
	if n.Date.IsZero() {
		n.Date = NewDate(today.Year(), today.Month(), today.Day())
	}
	if n.Description == "" {
		n.Description = DefaultDescription
	}
	if n.Duration == "" {
		n.Duration = DefaultStat
	}
	if n.Distance == "" {
		n.Distance = DefaultStat
	}
	if n.Elevation == "" {
		n.Elevation = DefaultStat
	}
	if n.Members == nil {
		n.Members = []string{}
	}
	if n.Photos == nil {
		n.Photos = []string{}
	}
	return n
}

// TripFilter holds the optional list filters. Zero values mean "any".
type TripFilter struct {
	Location string
	Year     int
}

// Matches reports whether t satisfies every set predicate.
func (f TripFilter) Matches(t Trip) bool {
	if f.Location != "" && t.Location != f.Location {
		return false
	}
	if f.Year != 0 && t.Year() != f.Year {
		return false
	}
	return true
}

// Filter returns the trips matching f, preserving order.
func Filter(trips []Trip, f TripFilter) []Trip {
	out := []Trip{}
	for _, t := range trips {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// FilterOptions lists the values the filter dropdowns offer.
type FilterOptions struct {
	Locations []string `json:"locations"`
	Years     []int    `json:"years"`
}

// BuildFilterOptions derives distinct locations (ascending) and years
// (most recent first) from trips.
func BuildFilterOptions(trips []Trip) FilterOptions {
	locSeen := map[string]bool{}
	yearSeen := map[int]bool{}
	opts := FilterOptions{Locations: []string{}, Years: []int{}}
	for _, t := range trips {
		if !locSeen[t.Location] {
			locSeen[t.Location] = true
			opts.Locations = append(opts.Locations, t.Location)
		}
		if y := t.Year(); !yearSeen[y] {
			yearSeen[y] = true
			opts.Years = append(opts.Years, y)
		}
	}
	sort.Strings(opts.Locations)
	sort.Sort(sort.Reverse(sort.IntSlice(opts.Years)))
	return opts
}

// TripCard is the summary shown in the trip grid.
type TripCard struct {
	ID               string `json:"id"`
	Location         string `json:"location"`
	Date             string `json:"date"`
	Photo            string `json:"photo"`
	MemberCount      int    `json:"memberCount"`
	MemberLabel      string `json:"memberLabel"`
	Distance         string `json:"distance"`
	ShortDescription string `json:"shortDescription"`
}

// ToCard builds the card for an already normalized trip.
func ToCard(t Trip) TripCard {
	photo := DefaultCardPhoto
	if len(t.Photos) > 0 {
		photo = t.Photos[0]
	}
	desc := t.Description
	if r := []rune(desc); len(r) > cardDescriptionLimit {
		desc = string(r[:cardDescriptionLimit]) + "..."
	}
	n := len(t.Members)
	label := strconv.Itoa(n) + " member"
	if n != 1 {
		label += "s"
	}
	return TripCard{
		ID:               t.ID,
		Location:         t.Location,
		Date:             FormatDate(t.Date.Time),
		Photo:            photo,
		MemberCount:      n,
		MemberLabel:      label,
		Distance:         t.Distance,
		ShortDescription: desc,
	}
}

// FormatDate renders a calendar date the way the site shows it,
// e.g. "August 15, 2024".
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%s %d, %d", d.Month(), d.Day(), d.Year())
}
