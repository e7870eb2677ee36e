package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/media"
)

// TripRecorder is the part of RecordService the form needs.
type TripRecorder interface {
	CreateTrip(ctx context.Context, input domain.Trip) (domain.Trip, error)
	UpdateTrip(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
}

// PhotoUploader is the part of media.Uploader the form needs.
type PhotoUploader interface {
	UploadMany(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) ([]string, error)
}

// PasswordChecker verifies the shared secrets.
type PasswordChecker interface {
	CheckClub(pw string) bool
	CheckAdmin(pw string) bool
}

// TripForm is the add/edit form as submitted.
type TripForm struct {
	Location    string `json:"location"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
	Distance    string `json:"distance"`
	Elevation   string `json:"elevation"`
	Members     string `json:"members"`
	Description string `json:"description"`
	// PhotoURLs are the manual URL fields; blanks are ignored.
	PhotoURLs []string `json:"photoUrls"`
	// UploadedPhotos were uploaded earlier through the photo endpoint.
	UploadedPhotos []string `json:"uploadedPhotos"`
	// EditingID, when sent, must name the trip the session is editing.
	EditingID string `json:"editingId"`

	Files []media.File `json:"-"`
}

// FormService is the trip form controller.
type FormService struct {
	records  TripRecorder
	uploader PhotoUploader
	gate     PasswordChecker
	log      zerolog.Logger
}

// NewFormService wires the controller. uploader may be nil when no files
// are ever attached.
func NewFormService(records TripRecorder, uploader PhotoUploader, gate PasswordChecker, log zerolog.Logger) *FormService {
	return &FormService{records: records, uploader: uploader, gate: gate, log: log}
}

// Authenticate marks the session as authenticated when pw is the club password.
func (s *FormService) Authenticate(sess *domain.Session, pw string) error {
	if !s.gate.CheckClub(pw) {
		return fmt.Errorf("service.FormService.Authenticate: %w", domain.ErrUnauthorized)
	}
	sess.Authenticated = true
	return nil
}

// Submit validates the form, uploads attached files, and creates or updates
// the trip. The form is in edit mode only while the session holds an editing
// trip, which only ListService.BeginEdit sets. Nothing reaches a store when
// validation fails. A successful save clears the session's editing trip.
func (s *FormService) Submit(ctx context.Context, sess *domain.Session, form TripForm) (domain.Trip, error) {
	if !sess.Authenticated {
		return domain.Trip{}, fmt.Errorf("service.FormService.Submit: %w", domain.ErrUnauthorized)
	}
	editingID, err := editTarget(sess, form.EditingID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.FormService.Submit: %w", err)
	}

	trip, err := tripFromForm(form)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.FormService.Submit: %w", err)
	}

	uploaded := append([]string{}, nonEmpty(form.UploadedPhotos)...)
	if len(form.Files) > 0 {
		if s.uploader == nil {
			return domain.Trip{}, fmt.Errorf("service.FormService.Submit: %w", media.ErrNotConfigured)
		}
		urls, err := s.uploader.UploadMany(ctx, form.Files, editingID, func(done, total int, ok bool) {
			s.log.Debug().Int("done", done).Int("total", total).Bool("ok", ok).Msg("photo upload progress")
		})
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.FormService.Submit: upload: %w", err)
		}
		uploaded = append(uploaded, urls...)
	}
	trip.Photos = append(uploaded, nonEmpty(form.PhotoURLs)...)

	var saved domain.Trip
	if editingID != "" {
		saved, err = s.records.UpdateTrip(ctx, editingID, domain.PatchFromTrip(trip))
	} else {
		saved, err = s.records.CreateTrip(ctx, trip)
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.FormService.Submit: %w", err)
	}

	sess.EditingTrip = nil
	return saved, nil
}

// editTarget returns the id of the trip being edited, or "" for a new trip.
// A requested id that is not the session's editing trip is refused.
func editTarget(sess *domain.Session, requested string) (string, error) {
	if sess.EditingTrip == nil {
		if requested != "" {
			return "", domain.ErrForbidden
		}
		return "", nil
	}
	if requested != "" && requested != sess.EditingTrip.ID {
		return "", domain.ErrForbidden
	}
	return sess.EditingTrip.ID, nil
}

// tripFromForm parses and validates the form fields, reporting every
// violation at once.
func tripFromForm(form TripForm) (domain.Trip, error) {
	trip := domain.Trip{
		Location:    strings.TrimSpace(form.Location),
		Duration:    strings.TrimSpace(form.Duration),
		Distance:    strings.TrimSpace(form.Distance),
		Elevation:   strings.TrimSpace(form.Elevation),
		Members:     domain.SplitMembers(form.Members),
		Description: strings.TrimSpace(form.Description),
	}

	badDate := false
	if d := strings.TrimSpace(form.Date); d != "" {
		parsed, err := domain.ParseDate(d)
		if err != nil {
			badDate = true
		} else {
			trip.Date = parsed
		}
	}

	err := domain.ValidateTrip(trip)
	if err == nil {
		return trip, nil
	}
	v := domain.Violations(err)
	if badDate {
		for i, msg := range v {
			if msg == domain.MsgDateRequired {
				v[i] = domain.MsgDateFormat
			}
		}
	}
	return domain.Trip{}, &domain.ValidationError{Violations: v}
}

func nonEmpty(in []string) []string {
	out := []string{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
