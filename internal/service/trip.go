// Package service contains the application logic of the trip log.
// RecordService fronts the configured store and fails over to the local
// store; FormService and ListService are the form and list controllers.
// No persistence details live here: services depend on repo interfaces only.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/metrics"
	"github.com/teeck111/bmc/internal/repo"
)

// RecordOptions configures a RecordService. Zero values pick defaults.
type RecordOptions struct {
	// Backend labels the primary store in logs and metrics.
	Backend string
	Now     func() time.Time
	NewID   func() string
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// RecordService is the record store client the controllers use.
// Every operation goes to the primary store first. Transport, credential and
// version-conflict failures are logged and the operation is repeated on the
// local store, so the caller still gets a result. Not-found and validation
// errors are surfaced unchanged.
//
// A write that lands in the local store is not synced back; the two stores
// diverge until someone re-enters the trip.
type RecordService struct {
	primary  repo.TripRepo
	fallback repo.TripRepo
	backend  string
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewRecordService builds a RecordService. fallback may be nil when the
// primary store is the local store itself.
func NewRecordService(primary, fallback repo.TripRepo, opts RecordOptions) *RecordService {
	if opts.Backend == "" {
		opts.Backend = "primary"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = NewTripID
	}
	return &RecordService{
		primary:  primary,
		fallback: fallback,
		backend:  opts.Backend,
		now:      opts.Now,
		newID:    opts.NewID,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// NewTripID returns a time-ordered UUID, or a random one if the clock
// source fails.
func NewTripID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ListTrips returns every trip, newest first, with legacy photo paths
// rewritten whichever store answered.
func (s *RecordService) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	start := time.Now()
	trips, err := s.primary.List(ctx)
	s.metrics.ObserveStore(s.backend, "list", time.Since(start).Seconds(), err)
	if err == nil {
		return domain.MigratePhotoPaths(trips), nil
	}
	if !s.canFallback(err) {
		return nil, fmt.Errorf("service.RecordService.ListTrips: %w", err)
	}

	s.warnFallback("list", err)
	trips, err = s.fallback.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.ListTrips: fallback: %w", err)
	}
	return domain.MigratePhotoPaths(trips), nil
}

// CreateTrip validates input, assigns the id and timestamps and stores it.
// Client-supplied id and timestamps are ignored.
func (s *RecordService) CreateTrip(ctx context.Context, input domain.Trip) (domain.Trip, error) {
	if err := domain.ValidateTrip(input); err != nil {
		return domain.Trip{}, fmt.Errorf("service.RecordService.CreateTrip: %w", err)
	}

	trip := input.Clone()
	trip.ID = s.newID()
	now := s.now().UTC()
	trip.DateAdded = now
	trip.DateModified = now
	if trip.Photos == nil {
		trip.Photos = []string{}
	}

	start := time.Now()
	saved, err := s.primary.Create(ctx, trip)
	s.metrics.ObserveStore(s.backend, "create", time.Since(start).Seconds(), err)
	if err == nil {
		return saved, nil
	}
	if !s.canFallback(err) {
		return domain.Trip{}, fmt.Errorf("service.RecordService.CreateTrip: %w", err)
	}

	s.warnFallback("create", err)
	saved, err = s.fallback.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.RecordService.CreateTrip: fallback: %w", err)
	}
	return saved, nil
}

// UpdateTrip merges patch into the trip with the given id.
func (s *RecordService) UpdateTrip(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return domain.Trip{}, fmt.Errorf("service.RecordService.UpdateTrip: %w", err)
	}
	patch.ModifiedAt = s.now().UTC()

	start := time.Now()
	updated, err := s.primary.Update(ctx, id, patch)
	s.metrics.ObserveStore(s.backend, "update", time.Since(start).Seconds(), err)
	if err == nil {
		return updated, nil
	}
	if !s.canFallback(err) {
		return domain.Trip{}, fmt.Errorf("service.RecordService.UpdateTrip: %w", err)
	}

	s.warnFallback("update", err)
	updated, err = s.fallback.Update(ctx, id, patch)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.RecordService.UpdateTrip: fallback: %w", err)
	}
	return updated, nil
}

// DeleteTrip removes the trip with the given id.
func (s *RecordService) DeleteTrip(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	err := s.primary.Delete(ctx, id)
	s.metrics.ObserveStore(s.backend, "delete", time.Since(start).Seconds(), err)
	if err == nil {
		return true, nil
	}
	if !s.canFallback(err) {
		return false, fmt.Errorf("service.RecordService.DeleteTrip: %w", err)
	}

	s.warnFallback("delete", err)
	if err := s.fallback.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("service.RecordService.DeleteTrip: fallback: %w", err)
	}
	return true, nil
}

func (s *RecordService) canFallback(err error) bool {
	if s.fallback == nil {
		return false
	}
	return !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation)
}

func (s *RecordService) warnFallback(op string, err error) {
	s.metrics.Fallback(op)
	s.log.Warn().Err(err).Str("backend", s.backend).Str("op", op).Msg("primary store failed, using local store")
}
