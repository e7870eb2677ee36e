package handler

import (
	"net/http"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
)

// PasswordRequest carries a club or admin password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, access.SessionFrom(r.Context()))
}

// CreateSession handles POST /session: the club password unlocks the form.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	s.withPassword(w, r, func(sess *domain.Session, pw string) error {
		return s.forms.Authenticate(sess, pw)
	})
}

// EndSession handles DELETE /session: drops the cookie, which locks the form
// and leaves admin and edit mode.
func (s *Server) EndSession(w http.ResponseWriter, _ *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// EnableAdmin handles POST /session/admin.
func (s *Server) EnableAdmin(w http.ResponseWriter, r *http.Request) {
	s.withPassword(w, r, func(sess *domain.Session, pw string) error {
		return s.lists.EnableAdmin(sess, pw)
	})
}

// DisableAdmin handles DELETE /session/admin.
func (s *Server) DisableAdmin(w http.ResponseWriter, r *http.Request) {
	sess := access.SessionFrom(r.Context())
	s.lists.DisableAdmin(&sess)
	s.saveSession(w, r, sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) withPassword(w http.ResponseWriter, r *http.Request, check func(*domain.Session, string) error) {
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := access.SessionFrom(r.Context())
	if err := check(&sess, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.saveSession(w, r, sess)
	writeJSON(w, http.StatusOK, sess)
}
