package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeck111/bmc/internal/handler"
	"github.com/teeck111/bmc/internal/media"
)

func TestUploadPhotos_JSONPartialFailure(t *testing.T) {
	var got []media.File
	photos := &mockPhotos{upload: func(_ context.Context, files []media.File, _ string, _ media.ProgressFunc) (media.Report, error) {
		got = files
		return media.Report{
			URLs:   []string{"https://cdn/a.jpg"},
			Errors: []string{"Photo 2 (b.png): too large"},
			Total:  2,
		}, nil
	}}
	h := newHTTPHandler(handler.Deps{Photos: photos})

	data := base64.StdEncoding.EncodeToString([]byte("img"))
	body := jsonBody(t, handler.PhotoUploadRequest{Photos: []handler.PhotoPayload{
		{Name: "a.jpg", Type: "image/jpeg", Data: data},
		{Name: "b.png", Type: "image/png", Data: "data:image/png;base64," + data},
	}})
	req := clubRequest(http.MethodPost, "/photos", strings.NewReader(body.String()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("img"), got[1].Data)
	resp := decode[handler.PhotoUploadResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.UploadedCount)
	assert.Equal(t, 2, resp.TotalCount)
	assert.Len(t, resp.Errors, 1)
}

func TestUploadPhotos_400NoPhotos(t *testing.T) {
	h := newHTTPHandler(handler.Deps{Photos: &mockPhotos{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, clubRequest(http.MethodPost, "/photos", strings.NewReader(`{"photos":[]}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No photos provided", decode[handler.ErrorResponse](t, rec).Error)
}

func TestUploadPhotos_Multipart(t *testing.T) {
	var got []media.File
	photos := &mockPhotos{upload: func(_ context.Context, files []media.File, _ string, _ media.ProgressFunc) (media.Report, error) {
		got = files
		return media.Report{URLs: []string{"u"}, Errors: []string{}, Total: 1}, nil
	}}
	h := newHTTPHandler(handler.Deps{Photos: photos})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photos", "trail head.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Club-Password", "summit")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "trail head.jpg", got[0].Name)
}

func TestUploadPhotos_NotConfigured(t *testing.T) {
	photos := &mockPhotos{upload: func(context.Context, []media.File, string, media.ProgressFunc) (media.Report, error) {
		return media.Report{}, media.ErrNotConfigured
	}}
	h := newHTTPHandler(handler.Deps{Photos: photos})

	body := `{"photos":[{"name":"a.jpg","type":"image/jpeg","data":"aW1n"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, clubRequest(http.MethodPost, "/photos", strings.NewReader(body)))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadPhotos_401WrongPassword(t *testing.T) {
	h := newHTTPHandler(handler.Deps{Photos: &mockPhotos{}})

	req := httptest.NewRequest(http.MethodPost, "/photos", strings.NewReader(`{"photos":[]}`))
	req.Header.Set("X-Club-Password", "guess")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
