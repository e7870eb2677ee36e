package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/teeck111/bmc/internal/domain"
)

// LocalTripsKey is the key the whole trip array is stored under.
const LocalTripsKey = "bmcTrips"

const localSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// LocalStore is the fallback store: a JSON array of trips kept under one key
// in a SQLite file on the server's disk. It never fails for lack of a
// network, only for disk errors.
type LocalStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenLocalStore opens (or creates) the SQLite file at path. Use ":memory:"
// in tests.
func OpenLocalStore(ctx context.Context, path string) (*LocalStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenLocalStore: open: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenLocalStore: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenLocalStore: schema: %w", err)
	}
	return NewLocalStore(db), nil
}

// NewLocalStore wraps an open database whose kv table already exists.
func NewLocalStore(db *sql.DB) *LocalStore {
	return &LocalStore{db: db}
}

// Close releases the database file.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// List returns the stored trips, or the seed trips when nothing was saved.
func (s *LocalStore) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.read(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("repo.LocalStore.List: %w", err)
	}
	return trips, nil
}

// Create prepends trip. When nothing was saved yet the seed trips are
// persisted along with it.
func (s *LocalStore) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	err := s.modify(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		if domain.IndexOf(trips, trip.ID) >= 0 {
			return nil, fmt.Errorf("trip %s already exists: %w", trip.ID, domain.ErrConflict)
		}
		return append([]domain.Trip{trip.Clone()}, trips...), nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.LocalStore.Create: %w", err)
	}
	return trip, nil
}

func (s *LocalStore) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	var updated domain.Trip
	err := s.modify(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		i := domain.IndexOf(trips, id)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		patch.Apply(&trips[i])
		updated = trips[i].Clone()
		return trips, nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.LocalStore.Update: %w", err)
	}
	return updated, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	err := s.modify(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		i := domain.IndexOf(trips, id)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(trips[:i], trips[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("repo.LocalStore.Delete: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *LocalStore) read(ctx context.Context, q querier) ([]domain.Trip, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, LocalTripsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SeedTrips(), nil
	}
	if err != nil {
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal([]byte(raw), &trips); err != nil {
		return nil, fmt.Errorf("decode %s: %w", LocalTripsKey, err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return domain.MigratePhotoPaths(trips), nil
}

// modify runs a read-modify-write of the trip array inside one transaction.
// Nothing is written when fn fails.
func (s *LocalStore) modify(ctx context.Context, fn func([]domain.Trip) ([]domain.Trip, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	trips, err := s.read(ctx, tx)
	if err != nil {
		return err
	}
	next, err := fn(trips)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", LocalTripsKey, err)
	}
	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, LocalTripsKey, string(raw)); err != nil {
		return err
	}
	return tx.Commit()
}
