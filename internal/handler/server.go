// Package handler implements the HTTP handlers for the trip log API.
// All handlers are methods on Server. Methods are split into feature files
// (health.go, trip.go, view.go, form.go, photo.go, session.go) but share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/service"
)

// TripRecorder is the raw record API: the operations the proxy backend of
// another instance calls.
type TripRecorder interface {
	ListTrips(ctx context.Context) ([]domain.Trip, error)
	CreateTrip(ctx context.Context, input domain.Trip) (domain.Trip, error)
	UpdateTrip(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
	DeleteTrip(ctx context.Context, id string) (bool, error)
}

// TripLister backs the trip grid and the admin actions on it.
type TripLister interface {
	View(ctx context.Context, f domain.TripFilter) (service.TripView, error)
	Detail(ctx context.Context, id string) (domain.Trip, error)
	EnableAdmin(sess *domain.Session, pw string) error
	DisableAdmin(sess *domain.Session)
	BeginEdit(ctx context.Context, sess *domain.Session, id string) (domain.Trip, error)
	Delete(ctx context.Context, sess domain.Session, id string, confirmed bool) error
}

// TripFormer backs the add/edit form.
type TripFormer interface {
	Authenticate(sess *domain.Session, pw string) error
	Submit(ctx context.Context, sess *domain.Session, form service.TripForm) (domain.Trip, error)
}

// PhotoUploader backs the photo upload endpoint.
type PhotoUploader interface {
	Upload(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) (media.Report, error)
}

// Deps collects everything the Server needs. Metrics, OpenAPI and MediaDir
// are optional; their routes are skipped when unset.
type Deps struct {
	Records  TripRecorder
	Lists    TripLister
	Forms    TripFormer
	Photos   PhotoUploader
	Sessions *access.SessionCodec
	Gate     access.Gate
	Logger   zerolog.Logger

	Metrics  http.Handler
	OpenAPI  []byte
	MediaDir string
}

// Server holds the handler dependencies.
type Server struct {
	records  TripRecorder
	lists    TripLister
	forms    TripFormer
	photos   PhotoUploader
	sessions *access.SessionCodec
	gate     access.Gate
	log      zerolog.Logger

	metrics  http.Handler
	openAPI  []byte
	mediaDir string
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	return &Server{
		records:  d.Records,
		lists:    d.Lists,
		forms:    d.Forms,
		photos:   d.Photos,
		sessions: d.Sessions,
		gate:     d.Gate,
		log:      d.Logger,
		metrics:  d.Metrics,
		openAPI:  d.OpenAPI,
		mediaDir: d.MediaDir,
	}
}

// Routes registers every endpoint on r. Cross-cutting middleware (request
// IDs, logging, CORS) is the caller's job; the session cookie is decoded here
// because only these routes use it.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	if len(s.openAPI) > 0 {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.LoadSession)

		r.Get("/session", s.GetSession)
		r.Post("/session", s.CreateSession)
		r.Delete("/session", s.EndSession)
		r.Post("/session/admin", s.EnableAdmin)
		r.Delete("/session/admin", s.DisableAdmin)

		r.Get("/trips/view", s.ViewTrips)
		r.Get("/trips/{id}", s.GetTrip)
		r.Post("/trips/{id}/edit", s.BeginEdit)
		r.Post("/trips/{id}/delete", s.ConfirmDelete)
		r.Post("/trips/form", s.SubmitForm)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireClub(s.gate))
			r.Get("/trips", s.ListTrips)
			r.Post("/trips", s.CreateTrip)
			r.Put("/trips", s.UpdateTrip)
			r.Delete("/trips", s.DeleteTrip)
			r.Post("/photos", s.UploadPhotos)
		})
	})
}

// Handler returns a fresh chi router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// saveSession writes sess back to the cookie. A failure is logged, not
// returned: the action itself already happened.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if err := s.sessions.Write(w, sess); err != nil {
		s.logger(r).Error().Err(err).Msg("write session cookie")
	}
}

// logger prefers the request-scoped logger the logging middleware attached.
func (s *Server) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
