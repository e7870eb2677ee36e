// Package domain contains the core data types for the club trip log.
// It is imported by every other internal package (repo, service, handler)
// and holds no I/O.
package domain

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Trip is a single club outing. It is the only persisted entity.
// ID, DateAdded and DateModified are owned by the store layer and are never
// taken from client input.
type Trip struct {
	ID           string             `json:"id"`
	Location     string             `json:"location"`
	Date         openapi_types.Date `json:"date"`
	Duration     string             `json:"duration,omitempty"`
	Distance     string             `json:"distance,omitempty"`
	Elevation    string             `json:"elevation,omitempty"`
	Members      []string           `json:"members"`
	Description  string             `json:"description"`
	Photos       []string           `json:"photos"`
	DateAdded    time.Time          `json:"dateAdded"`
	DateModified time.Time          `json:"dateModified"`
}

// TripPatch carries the fields of an update. A nil field leaves the stored
// value untouched, so partial updates behave the same on every backend.
type TripPatch struct {
	Location    *string             `json:"location,omitempty"`
	Date        *openapi_types.Date `json:"date,omitempty"`
	Duration    *string             `json:"duration,omitempty"`
	Distance    *string             `json:"distance,omitempty"`
	Elevation   *string             `json:"elevation,omitempty"`
	Members     []string            `json:"members,omitempty"`
	Description *string             `json:"description,omitempty"`
	Photos      *[]string           `json:"photos,omitempty"`

	// ModifiedAt is stamped by the service layer, not decoded from clients.
	ModifiedAt time.Time `json:"-"`
}

// Apply merges p into t in place. DateModified never moves backwards.
func (p TripPatch) Apply(t *Trip) {
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Distance != nil {
		t.Distance = *p.Distance
	}
	if p.Elevation != nil {
		t.Elevation = *p.Elevation
	}
	if p.Members != nil {
		t.Members = append([]string(nil), p.Members...)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Photos != nil {
		t.Photos = append([]string{}, (*p.Photos)...)
	}
	if p.ModifiedAt.After(t.DateModified) {
		t.DateModified = p.ModifiedAt
	}
}

// PatchFromTrip builds a patch that overwrites every user-editable field.
// The form controller uses it in edit mode, where the whole form is resubmitted.
func PatchFromTrip(t Trip) TripPatch {
	photos := append([]string{}, t.Photos...)
	return TripPatch{
		Location:    &t.Location,
		Date:        &t.Date,
		Duration:    &t.Duration,
		Distance:    &t.Distance,
		Elevation:   &t.Elevation,
		Members:     append([]string{}, t.Members...),
		Description: &t.Description,
		Photos:      &photos,
	}
}

// Clone returns a deep copy so callers can mutate slices freely.
func (t Trip) Clone() Trip {
	c := t
	if t.Members != nil {
		c.Members = append([]string{}, t.Members...)
	}
	if t.Photos != nil {
		c.Photos = append([]string{}, t.Photos...)
	}
	return c
}

// Year returns the calendar year of the trip date.
func (t Trip) Year() int {
	return t.Date.Year()
}

// IndexOf returns the position of the trip with the given id, or -1. A
// record stored without an id is found by its DerivedID.
func IndexOf(trips []Trip, id string) int {
	if id == "" {
		return -1
	}
	for i, t := range trips {
		if t.ID == id || t.ID == "" && DerivedID(t) == id {
			return i
		}
	}
	return -1
}

// NewDate builds a calendar date in UTC.
func NewDate(year int, month time.Month, day int) openapi_types.Date {
	return openapi_types.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 calendar date ("2006-01-02").
func ParseDate(s string) (openapi_types.Date, error) {
	t, err := time.Parse(openapi_types.DateFormat, s)
	if err != nil {
		return openapi_types.Date{}, err
	}
	return openapi_types.Date{Time: t}, nil
}
