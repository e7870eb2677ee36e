package service

import (
	"context"
	"fmt"
	"time"

	"github.com/teeck111/bmc/internal/domain"
)

// TripLister is the part of RecordService the list controller needs.
type TripLister interface {
	ListTrips(ctx context.Context) ([]domain.Trip, error)
	DeleteTrip(ctx context.Context, id string) (bool, error)
}

// TripView is everything the trip grid renders.
type TripView struct {
	Trips   []domain.Trip        `json:"trips"`
	Cards   []domain.TripCard    `json:"cards"`
	Options domain.FilterOptions `json:"filters"`
	Total   int                  `json:"total"`
}

// ListService is the trip list controller.
type ListService struct {
	records TripLister
	gate    PasswordChecker
	now     func() time.Time
}

// NewListService wires the controller.
func NewListService(records TripLister, gate PasswordChecker) *ListService {
	return &ListService{records: records, gate: gate, now: time.Now}
}

// Load lists every trip with display defaults filled in.
func (s *ListService) Load(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.records.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListService.Load: %w", err)
	}
	today := s.now()
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		out[i] = domain.Normalize(t, today)
	}
	return out, nil
}

// FilterOptions derives the filter dropdown values.
func (s *ListService) FilterOptions(trips []domain.Trip) domain.FilterOptions {
	return domain.BuildFilterOptions(trips)
}

// Filter applies the optional location and year predicates.
func (s *ListService) Filter(trips []domain.Trip, f domain.TripFilter) []domain.Trip {
	return domain.Filter(trips, f)
}

// Cards builds the grid summaries.
func (s *ListService) Cards(trips []domain.Trip) []domain.TripCard {
	cards := make([]domain.TripCard, len(trips))
	for i, t := range trips {
		cards[i] = domain.ToCard(t)
	}
	return cards
}

// View loads, filters and summarizes in one call. Filter options always
// come from the unfiltered list so the dropdowns never shrink.
func (s *ListService) View(ctx context.Context, f domain.TripFilter) (TripView, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return TripView{}, err
	}
	shown := s.Filter(all, f)
	return TripView{
		Trips:   shown,
		Cards:   s.Cards(shown),
		Options: s.FilterOptions(all),
		Total:   len(all),
	}, nil
}

// Detail returns one normalized trip.
func (s *ListService) Detail(ctx context.Context, id string) (domain.Trip, error) {
	trips, err := s.Load(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.ListService.Detail: %w", err)
	}
	i := domain.IndexOf(trips, id)
	if i < 0 {
		return domain.Trip{}, fmt.Errorf("service.ListService.Detail: %w", domain.ErrNotFound)
	}
	return trips[i], nil
}

// EnableAdmin turns admin mode on for this session only.
func (s *ListService) EnableAdmin(sess *domain.Session, pw string) error {
	if !s.gate.CheckAdmin(pw) {
		return fmt.Errorf("service.ListService.EnableAdmin: %w", domain.ErrUnauthorized)
	}
	sess.Admin = true
	return nil
}

// DisableAdmin turns admin mode off.
func (s *ListService) DisableAdmin(sess *domain.Session) {
	sess.Admin = false
}

// BeginEdit puts the trip into the session so the form opens in edit mode.
// Admin mode implies the contributor gate is already passed.
func (s *ListService) BeginEdit(ctx context.Context, sess *domain.Session, id string) (domain.Trip, error) {
	if !sess.Admin {
		return domain.Trip{}, fmt.Errorf("service.ListService.BeginEdit: %w", domain.ErrForbidden)
	}
	trip, err := s.Detail(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.ListService.BeginEdit: %w", err)
	}
	sess.EditingTrip = &trip
	sess.Authenticated = true
	return trip, nil
}

// Delete removes a trip after admin mode and an explicit confirmation.
func (s *ListService) Delete(ctx context.Context, sess domain.Session, id string, confirmed bool) error {
	if !sess.Admin {
		return fmt.Errorf("service.ListService.Delete: %w", domain.ErrForbidden)
	}
	if !confirmed {
		return fmt.Errorf("service.ListService.Delete: %w", domain.ErrConfirmationRequired)
	}
	if _, err := s.records.DeleteTrip(ctx, id); err != nil {
		return fmt.Errorf("service.ListService.Delete: %w", err)
	}
	return nil
}
