package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/teeck111/bmc/internal/media"
)

// PhotoPayload is one base64 photo in a JSON upload.
type PhotoPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// PhotoUploadRequest is the JSON form of POST /photos.
type PhotoUploadRequest struct {
	Photos []PhotoPayload `json:"photos"`
}

// PhotoUploadResponse reports a batch. Partial failure is still a 200.
type PhotoUploadResponse struct {
	Success       bool     `json:"success"`
	UploadedURLs  []string `json:"uploadedUrls"`
	UploadedCount int      `json:"uploadedCount"`
	TotalCount    int      `json:"totalCount"`
	Errors        []string `json:"errors"`
}

// UploadPhotos handles POST /photos with multipart "photos" parts or a JSON
// body of base64 photos.
func (s *Server) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	files, err := s.readPhotos(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No photos provided"})
		return
	}

	rep, err := s.photos.Upload(r.Context(), files, "", nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PhotoUploadResponse{
		Success:       true,
		UploadedURLs:  rep.URLs,
		UploadedCount: len(rep.URLs),
		TotalCount:    rep.Total,
		Errors:        rep.Errors,
	})
}

func (s *Server) readPhotos(r *http.Request) ([]media.File, error) {
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return readFiles(r.MultipartForm.File[photoField])
	}

	var req PhotoUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	files := make([]media.File, 0, len(req.Photos))
	for i, p := range req.Photos {
		data, err := decodeBase64(p.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: photo %d: %v", errBadRequest, i+1, err)
		}
		files = append(files, media.File{Name: p.Name, ContentType: p.Type, Data: data})
	}
	return files, nil
}

// decodeBase64 accepts raw base64 or a data URL.
func decodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
