// Package repo contains every storage backend for trip records.
// Each backend implements TripRepo; the service layer picks one at startup
// and keeps a local store behind it as the fallback.
// No business logic lives here, only persistence and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/teeck111/bmc/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not on any concrete backend,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// List returns all trips, newest first.
	List(ctx context.Context) ([]domain.Trip, error)

	// Create stores a fully formed trip. ID and timestamps are already set
	// by the caller and are kept as given.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Update merges patch into the stored trip, keeping its position.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewPostgresTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, location, trip_date, duration, distance, elevation,
		members, description, photos, date_added, date_modified`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES (@id, @location, @trip_date, @duration, @distance, @elevation,
		        @members, @description, @photos, @date_added, @date_modified)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":            trip.ID,
		"location":      trip.Location,
		"trip_date":     pgtype.Date{Time: trip.Date.Time, Valid: true},
		"duration":      trip.Duration,
		"distance":      trip.Distance,
		"elevation":     trip.Elevation,
		"members":       nonNil(trip.Members),
		"description":   trip.Description,
		"photos":        nonNil(trip.Photos),
		"date_added":    trip.DateAdded,
		"date_modified": trip.DateModified,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.Create: trip %s already exists: %w", trip.ID, domain.ErrConflict)
		}
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.Create: %w", err)
	}
	return result, nil
}

// pgCode returns the SQLSTATE of a Postgres error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// List returns all trips, most recently added first.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips ORDER BY date_added DESC, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.List: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.pgTripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.pgTripRepo.List: rows: %w", err)
	}

	return trips, nil
}

// Update applies the non-nil patch fields. NULL arguments keep the column.
func (r *pgTripRepo) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	q := `
		UPDATE trips
		SET location      = COALESCE(@location, location),
		    trip_date     = COALESCE(@trip_date, trip_date),
		    duration      = COALESCE(@duration, duration),
		    distance      = COALESCE(@distance, distance),
		    elevation     = COALESCE(@elevation, elevation),
		    members       = COALESCE(@members, members),
		    description   = COALESCE(@description, description),
		    photos        = COALESCE(@photos, photos),
		    date_modified = GREATEST(date_modified, @modified_at)
		WHERE id = @id
		RETURNING ` + tripColumns

	var date pgtype.Date
	if patch.Date != nil {
		date = pgtype.Date{Time: patch.Date.Time, Valid: true}
	}
	var photos []string
	if patch.Photos != nil {
		photos = nonNil(*patch.Photos)
	}

	args := pgx.NamedArgs{
		"id":          id,
		"location":    patch.Location,
		"trip_date":   date,
		"duration":    patch.Duration,
		"distance":    patch.Distance,
		"elevation":   patch.Elevation,
		"members":     patch.Members,
		"description": patch.Description,
		"photos":      photos,
		"modified_at": patch.ModifiedAt,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.pgTripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.pgTripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.pgTripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t    domain.Trip
		date pgtype.Date
	)

	err := s.Scan(&t.ID, &t.Location, &date, &t.Duration, &t.Distance, &t.Elevation,
		&t.Members, &t.Description, &t.Photos, &t.DateAdded, &t.DateModified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.Date = domain.NewDate(date.Time.Year(), date.Time.Month(), date.Time.Day())
	t.DateAdded = t.DateAdded.UTC()
	t.DateModified = t.DateModified.UTC()
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
