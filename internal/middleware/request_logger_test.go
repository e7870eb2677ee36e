package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeck111/bmc/internal/middleware"
)

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var ctxLogged bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Debug().Msg("inside")
		ctxLogged = true
		w.WriteHeader(http.StatusTeapot)
	})
	h := chimiddleware.RequestID(middleware.NewRequestLogger(log)(inner))

	req := httptest.NewRequest(http.MethodGet, "/trips?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, ctxLogged)
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/trips", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.Contains(t, entry, "duration_ms")
}

func TestRequestLogger_ServerErrorLogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := middleware.NewRequestLogger(zerolog.New(&buf))(inner)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/trips", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
}

type recordedRequest struct {
	method string
	status int
}

type fakeRecorder struct{ got []recordedRequest }

func (f *fakeRecorder) ObserveRequest(method string, status int, _ float64) {
	f.got = append(f.got, recordedRequest{method, status})
}

var _ middleware.Recorder = (*fakeRecorder)(nil)

func TestMetricsHandler_ObservesStatus(t *testing.T) {
	rec := &fakeRecorder{}
	h := middleware.NewMetricsHandler(rec)(okHandler)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/trips", nil))

	assert.Equal(t, []recordedRequest{{http.MethodDelete, http.StatusOK}}, rec.got)
}
