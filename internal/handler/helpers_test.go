package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/handler"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockRecords is a test double for handler.TripRecorder.
// Set only the method fields your test needs.
type mockRecords struct {
	list   func(ctx context.Context) ([]domain.Trip, error)
	create func(ctx context.Context, t domain.Trip) (domain.Trip, error)
	update func(ctx context.Context, id string, p domain.TripPatch) (domain.Trip, error)
	delete func(ctx context.Context, id string) (bool, error)
}

func (m *mockRecords) ListTrips(ctx context.Context) ([]domain.Trip, error) { return m.list(ctx) }
func (m *mockRecords) CreateTrip(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockRecords) UpdateTrip(ctx context.Context, id string, p domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, p)
}
func (m *mockRecords) DeleteTrip(ctx context.Context, id string) (bool, error) {
	return m.delete(ctx, id)
}

// compile-time check: mockRecords must satisfy handler.TripRecorder.
var _ handler.TripRecorder = (*mockRecords)(nil)

type mockLists struct {
	view      func(ctx context.Context, f domain.TripFilter) (service.TripView, error)
	detail    func(ctx context.Context, id string) (domain.Trip, error)
	beginEdit func(ctx context.Context, sess *domain.Session, id string) (domain.Trip, error)
	del       func(ctx context.Context, sess domain.Session, id string, confirmed bool) error
}

func (m *mockLists) View(ctx context.Context, f domain.TripFilter) (service.TripView, error) {
	return m.view(ctx, f)
}
func (m *mockLists) Detail(ctx context.Context, id string) (domain.Trip, error) {
	return m.detail(ctx, id)
}
func (m *mockLists) EnableAdmin(sess *domain.Session, pw string) error {
	if !testGate.CheckAdmin(pw) {
		return domain.ErrUnauthorized
	}
	sess.Admin = true
	return nil
}
func (m *mockLists) DisableAdmin(sess *domain.Session) { sess.Admin = false }
func (m *mockLists) BeginEdit(ctx context.Context, sess *domain.Session, id string) (domain.Trip, error) {
	return m.beginEdit(ctx, sess, id)
}
func (m *mockLists) Delete(ctx context.Context, sess domain.Session, id string, confirmed bool) error {
	return m.del(ctx, sess, id, confirmed)
}

var _ handler.TripLister = (*mockLists)(nil)

type mockForms struct {
	submit func(ctx context.Context, sess *domain.Session, form service.TripForm) (domain.Trip, error)
}

func (m *mockForms) Authenticate(sess *domain.Session, pw string) error {
	if !testGate.CheckClub(pw) {
		return domain.ErrUnauthorized
	}
	sess.Authenticated = true
	return nil
}
func (m *mockForms) Submit(ctx context.Context, sess *domain.Session, form service.TripForm) (domain.Trip, error) {
	return m.submit(ctx, sess, form)
}

var _ handler.TripFormer = (*mockForms)(nil)

type mockPhotos struct {
	upload func(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) (media.Report, error)
}

func (m *mockPhotos) Upload(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) (media.Report, error) {
	return m.upload(ctx, files, ownerID, onProgress)
}

var _ handler.PhotoUploader = (*mockPhotos)(nil)

// ---- helpers ---------------------------------------------------------------

var testGate = access.Gate{ClubPassword: "summit", AdminPassword: "ridge"}

var testCodec = access.NewSessionCodec([]byte("0123456789abcdef0123456789abcdef"), nil, false)

// newHTTPHandler wires a Server around the given deps the same way main does.
func newHTTPHandler(d handler.Deps) http.Handler {
	d.Sessions = testCodec
	d.Gate = testGate
	return handler.NewServer(d).Handler()
}

// sessionCookie encodes sess the way the server would have set it.
func sessionCookie(t *testing.T, sess domain.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, testCodec.Write(rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

// readSession decodes the session cookie a response set.
func readSession(t *testing.T, rec *httptest.ResponseRecorder) domain.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return testCodec.Read(req)
}

func tripFixture() domain.Trip {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.Trip{
		ID:           "t-1",
		Location:     "Mt Holy Cross",
		Date:         domain.NewDate(2024, time.August, 15),
		Members:      []string{"Tyler", "Sarah"},
		Description:  "Ridge scramble",
		Photos:       []string{},
		DateAdded:    ts,
		DateModified: ts,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}
