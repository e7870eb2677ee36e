package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/media"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and an ErrorResponse. Unexpected
// errors are logged and their text is kept out of the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		s.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func errorBody(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:      "Validation failed",
			Details:    strings.Join(domain.Violations(err), "; "),
			Violations: domain.Violations(err),
		}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "Invalid password"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "Admin mode required"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Trip not found"}
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusConflict, ErrorResponse{Error: "Confirmation required"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "Trip data changed, reload and try again"}
	case errors.Is(err, media.ErrNotConfigured):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Photo uploads are not configured"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}
}

// decodeJSON reads a JSON body into v. An empty body is a bad request.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", errBadRequest)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
