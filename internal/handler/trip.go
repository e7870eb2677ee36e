package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/repo"
)

// The raw record API speaks the same wire types the proxy backend sends, so
// one instance can front another.

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.records.ListTrips(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.ProxyListResponse{Trips: trips})
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var trip domain.Trip
	if err := decodeJSON(r, &trip); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.records.CreateTrip(r.Context(), trip)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, repo.ProxyTripResponse{
		Success: true,
		Trip:    created,
		Message: "Trip added successfully",
	})
}

// UpdateTrip handles PUT /trips. The id travels in the body next to the
// fields being changed.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req repo.ProxyUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, r, fmt.Errorf("%w: trip id is required", errBadRequest))
		return
	}

	updated, err := s.records.UpdateTrip(r.Context(), req.ID, req.TripPatch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.ProxyTripResponse{
		Success: true,
		Trip:    updated,
		Message: "Trip updated successfully",
	})
}

// DeleteTrip handles DELETE /trips.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	var req repo.ProxyDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, r, fmt.Errorf("%w: trip id is required", errBadRequest))
		return
	}

	if _, err := s.records.DeleteTrip(r.Context(), req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo.ProxyDeleteResponse{
		Success:   true,
		Message:   "Trip deleted successfully",
		DeletedID: req.ID,
	})
}
