package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teeck111/bmc/internal/middleware"
)

const siteOrigin = "https://bigmountainclub.example"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler([]string{siteOrigin})(okHandler)
	req := httptest.NewRequest(method, "/trips", nil)
	req.Header.Set("Origin", origin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSHandler_SiteOriginIsEchoed(t *testing.T) {
	rec := corsRequest(http.MethodGet, siteOrigin, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, siteOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSHandler_OtherOriginGetsNoHeader(t *testing.T) {
	rec := corsRequest(http.MethodGet, "https://elsewhere.example", nil)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSHandler_Preflight(t *testing.T) {
	// Browsers lowercase Access-Control-Request-Headers and rs/cors compares
	// them verbatim.
	tests := []struct {
		name    string
		method  string
		headers string
	}{
		{"json create", http.MethodPost, "content-type"},
		{"proxy update", http.MethodPut, "content-type,x-club-password"},
		{"proxy delete", http.MethodDelete, "x-club-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := corsRequest(http.MethodOptions, siteOrigin, map[string]string{
				"Access-Control-Request-Method":  tt.method,
				"Access-Control-Request-Headers": tt.headers,
			})

			assert.Less(t, rec.Code, 300, "preflight status")
			assert.Equal(t, siteOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), tt.method)
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
