package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
)

// ViewTrips handles GET /trips/view?location=&year=.
func (s *Server) ViewTrips(w http.ResponseWriter, r *http.Request) {
	f := domain.TripFilter{Location: strings.TrimSpace(r.URL.Query().Get("location"))}
	if y := strings.TrimSpace(r.URL.Query().Get("year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: year must be a number", errBadRequest))
			return
		}
		f.Year = year
	}

	view, err := s.lists.View(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.lists.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// BeginEdit handles POST /trips/{id}/edit.
func (s *Server) BeginEdit(w http.ResponseWriter, r *http.Request) {
	sess := access.SessionFrom(r.Context())
	trip, err := s.lists.BeginEdit(r.Context(), &sess, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.saveSession(w, r, sess)
	writeJSON(w, http.StatusOK, trip)
}

// DeleteRequest confirms a delete from the trip grid.
type DeleteRequest struct {
	Confirm bool `json:"confirm"`
}

// ConfirmDelete handles POST /trips/{id}/delete.
func (s *Server) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := s.lists.Delete(r.Context(), access.SessionFrom(r.Context()), id, req.Confirm); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
