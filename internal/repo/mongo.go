package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teeck111/bmc/internal/domain"
)

// DefaultMongoCollection is the collection trip documents live in.
const DefaultMongoCollection = "bmc-trips"

// tripDoc is the stored shape of one trip. The calendar date is kept as
// "YYYY-MM-DD" text so it sorts and reads the same as in the JSON document.
type tripDoc struct {
	ID           string    `bson:"_id"`
	Location     string    `bson:"location"`
	Date         string    `bson:"date"`
	Duration     string    `bson:"duration,omitempty"`
	Distance     string    `bson:"distance,omitempty"`
	Elevation    string    `bson:"elevation,omitempty"`
	Members      []string  `bson:"members"`
	Description  string    `bson:"description"`
	Photos       []string  `bson:"photos"`
	DateAdded    time.Time `bson:"dateAdded"`
	DateModified time.Time `bson:"dateModified"`
}

func toTripDoc(t domain.Trip) tripDoc {
	return tripDoc{
		ID:           t.ID,
		Location:     t.Location,
		Date:         t.Date.Format(dateLayout),
		Duration:     t.Duration,
		Distance:     t.Distance,
		Elevation:    t.Elevation,
		Members:      nonNil(t.Members),
		Description:  t.Description,
		Photos:       nonNil(t.Photos),
		DateAdded:    t.DateAdded,
		DateModified: t.DateModified,
	}
}

func (d tripDoc) toDomain() (domain.Trip, error) {
	date, err := domain.ParseDate(d.Date)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: date %q: %w", d.ID, d.Date, err)
	}
	return domain.Trip{
		ID:           d.ID,
		Location:     d.Location,
		Date:         date,
		Duration:     d.Duration,
		Distance:     d.Distance,
		Elevation:    d.Elevation,
		Members:      nonNil(d.Members),
		Description:  d.Description,
		Photos:       nonNil(d.Photos),
		DateAdded:    d.DateAdded.UTC(),
		DateModified: d.DateModified.UTC(),
	}, nil
}

const dateLayout = "2006-01-02"

// MongoStore keeps one document per trip. Updates are conditioned on the
// dateModified value that was read, so a concurrent edit yields
// domain.ErrConflict instead of being overwritten.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore uses coll for all operations.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the listing index. Safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dateAdded", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("repo.MongoStore.EnsureIndexes: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]domain.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateAdded", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoStore.List: %w", wrapMongoErr(err))
	}
	defer cur.Close(ctx)

	trips := []domain.Trip{}
	for cur.Next(ctx) {
		var d tripDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("repo.MongoStore.List: decode: %w", err)
		}
		t, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("repo.MongoStore.List: %w", err)
		}
		trips = append(trips, t)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("repo.MongoStore.List: cursor: %w", wrapMongoErr(err))
	}
	return trips, nil
}

func (s *MongoStore) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if _, err := s.coll.InsertOne(ctx, toTripDoc(trip)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Trip{}, fmt.Errorf("repo.MongoStore.Create: trip %s: %w", trip.ID, domain.ErrConflict)
		}
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Create: %w", wrapMongoErr(err))
	}
	return trip, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	var current tripDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Update: %w", wrapMongoErr(err))
	}

	trip, err := current.toDomain()
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Update: %w", err)
	}
	patch.Apply(&trip)

	next := toTripDoc(trip)
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id, "dateModified": current.DateModified}, next)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Update: %w", wrapMongoErr(err))
	}
	if res.MatchedCount == 0 {
		return domain.Trip{}, fmt.Errorf("repo.MongoStore.Update: trip %s changed concurrently: %w", id, domain.ErrConflict)
	}
	return trip, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("repo.MongoStore.Delete: %w", wrapMongoErr(err))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("repo.MongoStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// wrapMongoErr marks driver failures as unavailability so the service layer
// falls back to the local store.
func wrapMongoErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}
