package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teeck111/bmc/internal/domain"
)

var today = time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)

func TestNormalize_FillsDefaults(t *testing.T) {
	got := domain.Normalize(domain.Trip{}, today)

	assert.Equal(t, domain.DerivedID(domain.Trip{}), got.ID)
	assert.Equal(t, domain.DefaultLocation, got.Location)
	assert.Equal(t, domain.NewDate(2025, time.March, 9), got.Date)
	assert.Equal(t, domain.DefaultDescription, got.Description)
	assert.Equal(t, "N/A", got.Duration)
	assert.Equal(t, "N/A", got.Distance)
	assert.Equal(t, "N/A", got.Elevation)
	assert.NotNil(t, got.Members)
	assert.NotNil(t, got.Photos)
}

func TestNormalize_MissingIDIsStable(t *testing.T) {
	stored := domain.Trip{Location: "Quandary", Date: domain.NewDate(2023, time.June, 3), Description: "Ridge"}
	other := stored
	other.Location = "Quandary Peak"

	first := domain.Normalize(stored, today)
	second := domain.Normalize(stored, today.Add(48*time.Hour))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, domain.Normalize(other, today).ID)
}

func TestNormalize_KeepsPresentValues(t *testing.T) {
	in := sampleTrip()
	got := domain.Normalize(in, today)

	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, in.Location, got.Location)
	assert.Equal(t, "11 miles", got.Distance)
	assert.Equal(t, "N/A", got.Elevation)
}

func tripsForFilter() []domain.Trip {
	return []domain.Trip{
		{ID: "1", Location: "Mt Holy Cross", Date: domain.NewDate(2024, time.August, 15)},
		{ID: "2", Location: "Gore Range", Date: domain.NewDate(2024, time.July, 22)},
		{ID: "3", Location: "Mt Holy Cross", Date: domain.NewDate(2023, time.June, 1)},
		{ID: "4", Location: "Longs Peak", Date: domain.NewDate(2025, time.May, 3)},
	}
}

func TestBuildFilterOptions(t *testing.T) {
	opts := domain.BuildFilterOptions(tripsForFilter())

	assert.Equal(t, []string{"Gore Range", "Longs Peak", "Mt Holy Cross"}, opts.Locations)
	assert.Equal(t, []int{2025, 2024, 2023}, opts.Years)
}

func TestFilter_Intersection(t *testing.T) {
	trips := tripsForFilter()

	got := domain.Filter(trips, domain.TripFilter{Location: "Mt Holy Cross", Year: 2024})

	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestFilter_OrderIndependent(t *testing.T) {
	trips := tripsForFilter()
	byLoc := domain.TripFilter{Location: "Mt Holy Cross"}
	byYear := domain.TripFilter{Year: 2024}

	a := domain.Filter(domain.Filter(trips, byLoc), byYear)
	b := domain.Filter(domain.Filter(trips, byYear), byLoc)

	assert.Equal(t, a, b)
}

func TestFilter_NoPredicatesReturnsAll(t *testing.T) {
	assert.Len(t, domain.Filter(tripsForFilter(), domain.TripFilter{}), 4)
}

func TestToCard(t *testing.T) {
	trip := domain.Normalize(sampleTrip(), today)
	trip.Description = strings.Repeat("x", 120)

	card := domain.ToCard(trip)

	assert.Equal(t, "a.jpg", card.Photo)
	assert.Equal(t, 2, card.MemberCount)
	assert.Equal(t, "2 members", card.MemberLabel)
	assert.Equal(t, "August 15, 2024", card.Date)
	assert.Equal(t, strings.Repeat("x", 100)+"...", card.ShortDescription)
}

func TestToCard_DefaultsPhotoAndSingularLabel(t *testing.T) {
	trip := domain.Normalize(domain.Trip{Members: []string{"Sam"}, Description: "short"}, today)

	card := domain.ToCard(trip)

	assert.Equal(t, domain.DefaultCardPhoto, card.Photo)
	assert.Equal(t, "1 member", card.MemberLabel)
	assert.Equal(t, "short", card.ShortDescription)
}

func TestMigratePhotoPaths(t *testing.T) {
	in := []domain.Trip{{ID: "1", Photos: []string{"imgs/a.jpg", "https://x/imgs/b.jpg", "assets/images/c.jpg"}}}

	out := domain.MigratePhotoPaths(in)

	assert.Equal(t, []string{"assets/images/a.jpg", "https://x/imgs/b.jpg", "assets/images/c.jpg"}, out[0].Photos)
	assert.Equal(t, "imgs/a.jpg", in[0].Photos[0], "input must not be mutated")
}

func TestNewDocument_Defaults(t *testing.T) {
	doc := domain.NewDocument(nil, today)

	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "Big Mountain Club trip data", doc.Description)
	assert.NotNil(t, doc.Trips)
	assert.Equal(t, today, doc.LastUpdated)
}

func TestSeedTrips(t *testing.T) {
	seeds := domain.SeedTrips()

	assert.Len(t, seeds, 2)
	for _, s := range seeds {
		assert.NoError(t, domain.ValidateTrip(s))
	}
}
