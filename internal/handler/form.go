package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/service"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// photoField is the multipart file field for photos.
const photoField = "photos"

// FormResponse answers a successful form submit.
type FormResponse struct {
	Success bool        `json:"success"`
	Trip    domain.Trip `json:"trip"`
	Message string      `json:"message"`
}

// SubmitForm handles POST /trips/form, either as JSON or as multipart with
// photo files attached.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var form service.TripForm
	var err error
	if isMultipart(r) {
		form, err = readMultipartForm(r)
	} else {
		err = decodeJSON(r, &form)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := access.SessionFrom(r.Context())
	editing := sess.EditingTrip != nil
	saved, err := s.forms.Submit(r.Context(), &sess, form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.saveSession(w, r, sess)

	msg := "Trip added successfully"
	status := http.StatusCreated
	if editing {
		msg = "Trip updated successfully"
		status = http.StatusOK
	}
	writeJSON(w, status, FormResponse{Success: true, Trip: saved, Message: msg})
}

func readMultipartForm(r *http.Request) (service.TripForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return service.TripForm{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	v := r.MultipartForm.Value
	first := func(k string) string {
		if len(v[k]) == 0 {
			return ""
		}
		return v[k][0]
	}

	files, err := readFiles(r.MultipartForm.File[photoField])
	if err != nil {
		return service.TripForm{}, err
	}
	return service.TripForm{
		Location:       first("location"),
		Date:           first("date"),
		Duration:       first("duration"),
		Distance:       first("distance"),
		Elevation:      first("elevation"),
		Members:        first("members"),
		Description:    first("description"),
		PhotoURLs:      v["photoUrls"],
		UploadedPhotos: v["uploadedPhotos"],
		EditingID:      first("editingId"),
		Files:          files,
	}, nil
}

func readFiles(headers []*multipart.FileHeader) ([]media.File, error) {
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", errBadRequest, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", errBadRequest, fh.Filename, err)
		}
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
