package domain

import (
	"strings"
	"time"
)

const (
	// DocumentVersion is the schema version written into every envelope.
	DocumentVersion = "1.0"
	// DocumentDescription is the human-readable envelope label.
	DocumentDescription = "Big Mountain Club trip data"

	// LegacyPhotoPrefix is the deprecated location of bundled images.
	LegacyPhotoPrefix = "imgs/"
	// PhotoPrefix replaces LegacyPhotoPrefix.
	PhotoPrefix = "assets/images/"
)

// Document is the JSON envelope stored in the remote content repository.
// The version token (content SHA) travels next to it, not inside it.
type Document struct {
	Trips       []Trip    `json:"trips"`
	LastUpdated time.Time `json:"lastUpdated"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
}

// NewDocument wraps trips in a fresh envelope.
func NewDocument(trips []Trip, now time.Time) Document {
	if trips == nil {
		trips = []Trip{}
	}
	return Document{
		Trips:       trips,
		LastUpdated: now.UTC(),
		Version:     DocumentVersion,
		Description: DocumentDescription,
	}
}

// Touch stamps the envelope after a mutation and fills in missing header fields.
func (d *Document) Touch(now time.Time) {
	d.LastUpdated = now.UTC()
	if d.Version == "" {
		d.Version = DocumentVersion
	}
	if d.Description == "" {
		d.Description = DocumentDescription
	}
	if d.Trips == nil {
		d.Trips = []Trip{}
	}
}

// MigratePhotoPaths rewrites photo references that still use the legacy
// prefix. The input slice is not modified.
func MigratePhotoPaths(trips []Trip) []Trip {
	out := make([]Trip, len(trips))
	for i, t := range trips {
		c := t.Clone()
		for j, p := range c.Photos {
			if strings.HasPrefix(p, LegacyPhotoPrefix) {
				c.Photos[j] = PhotoPrefix + strings.TrimPrefix(p, LegacyPhotoPrefix)
			}
		}
		out[i] = c
	}
	return out
}

// SeedTrips returns the sample records shown before anything has been saved.
func SeedTrips() []Trip {
	return []Trip{
		{
			ID:          "1",
			Location:    "Mt Holy Cross",
			Date:        NewDate(2024, time.August, 15),
			Members:     []string{"Tyler", "Brendan", "Sarah", "Mike"},
			Photos:      []string{"assets/images/hc_summit.jpg", "assets/images/hc_group.JPG", "assets/images/hc_trees.JPG"},
			Description: "Epic 4-hour ridge scramble to one of Colorado's most challenging 14ers. Perfect weather and incredible views!",
			Distance:    "11 miles",
			Elevation:   "5,600 ft gain",
			Duration:    "8 hours",
			DateAdded:   time.Date(2024, time.August, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "2",
			Location:    "Gore Range Backpacking",
			Date:        NewDate(2024, time.July, 22),
			Members:     []string{"Alex", "Jordan", "Casey", "Morgan", "Sam"},
			Photos:      []string{"assets/images/gorebackpacking.jpeg"},
			Description: "3-day backpacking adventure in the Gore Range with multiple summit attempts. Amazing alpine lakes and ridge walks.",
			Distance:    "25 miles",
			Elevation:   "4,200 ft gain",
			Duration:    "3 days",
			DateAdded:   time.Date(2024, time.July, 22, 10, 0, 0, 0, time.UTC),
		},
	}
}
