package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/service"
)

type mockRecorder struct {
	create func(ctx context.Context, input domain.Trip) (domain.Trip, error)
	update func(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error)
}

func (m *mockRecorder) CreateTrip(ctx context.Context, input domain.Trip) (domain.Trip, error) {
	return m.create(ctx, input)
}
func (m *mockRecorder) UpdateTrip(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, patch)
}

var _ service.TripRecorder = (*mockRecorder)(nil)

type mockUploader struct {
	uploadMany func(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) ([]string, error)
}

func (m *mockUploader) UploadMany(ctx context.Context, files []media.File, ownerID string, onProgress media.ProgressFunc) ([]string, error) {
	return m.uploadMany(ctx, files, ownerID, onProgress)
}

var _ service.PhotoUploader = (*mockUploader)(nil)

var gate = access.Gate{ClubPassword: "summit", AdminPassword: "ridge"}

func validForm() service.TripForm {
	return service.TripForm{
		Location:    "Mt Holy Cross",
		Date:        "2024-08-15",
		Members:     "Tyler, Sarah",
		Description: "Ridge scramble",
	}
}

func captureCreate(got *domain.Trip) *mockRecorder {
	return &mockRecorder{create: func(_ context.Context, in domain.Trip) (domain.Trip, error) {
		*got = in
		in.ID = "new"
		return in, nil
	}}
}

func TestFormService_Authenticate(t *testing.T) {
	svc := service.NewFormService(nil, nil, gate, zerolog.Nop())
	var sess domain.Session

	assert.ErrorIs(t, svc.Authenticate(&sess, "wrong"), domain.ErrUnauthorized)
	assert.False(t, sess.Authenticated)

	require.NoError(t, svc.Authenticate(&sess, "summit"))
	assert.True(t, sess.Authenticated)
}

func TestFormService_Submit_RequiresAuthentication(t *testing.T) {
	svc := service.NewFormService(&mockRecorder{}, nil, gate, zerolog.Nop())

	_, err := svc.Submit(context.Background(), &domain.Session{}, validForm())

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFormService_Submit_EmptyLocation(t *testing.T) {
	called := false
	rec := &mockRecorder{create: func(context.Context, domain.Trip) (domain.Trip, error) {
		called = true
		return domain.Trip{}, nil
	}}
	svc := service.NewFormService(rec, nil, gate, zerolog.Nop())

	form := validForm()
	form.Location = ""
	_, err := svc.Submit(context.Background(), &domain.Session{Authenticated: true}, form)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"Location is required"}, domain.Violations(err))
	assert.False(t, called, "no store call on validation failure")
}

func TestFormService_Submit_AllViolationsAtOnce(t *testing.T) {
	svc := service.NewFormService(&mockRecorder{}, nil, gate, zerolog.Nop())

	_, err := svc.Submit(context.Background(), &domain.Session{Authenticated: true}, service.TripForm{Date: "15/08/2024", Members: " , "})

	assert.Equal(t, []string{
		domain.MsgLocationRequired,
		domain.MsgDateFormat,
		domain.MsgDescriptionRequired,
		domain.MsgMemberRequired,
	}, domain.Violations(err))
}

func TestFormService_Submit_PhotoOrder(t *testing.T) {
	var got domain.Trip
	up := &mockUploader{uploadMany: func(_ context.Context, files []media.File, _ string, onProgress media.ProgressFunc) ([]string, error) {
		for i := range files {
			onProgress(i+1, len(files), true)
		}
		return []string{"https://cdn/new.jpg"}, nil
	}}
	svc := service.NewFormService(captureCreate(&got), up, gate, zerolog.Nop())

	form := validForm()
	form.UploadedPhotos = []string{"https://cdn/earlier.jpg"}
	form.PhotoURLs = []string{"https://x/manual.jpg", "  ", "https://cdn/earlier.jpg"}
	form.Files = []media.File{{Name: "new.jpg", ContentType: "image/jpeg", Data: []byte("x")}}

	_, err := svc.Submit(context.Background(), &domain.Session{Authenticated: true}, form)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn/earlier.jpg",
		"https://cdn/new.jpg",
		"https://x/manual.jpg",
		"https://cdn/earlier.jpg",
	}, got.Photos, "uploaded first, then manual URLs, no dedup")
	assert.Equal(t, []string{"Tyler", "Sarah"}, got.Members)
}

func TestFormService_Submit_UploadNotConfigured(t *testing.T) {
	up := &mockUploader{uploadMany: func(context.Context, []media.File, string, media.ProgressFunc) ([]string, error) {
		return nil, media.ErrNotConfigured
	}}
	svc := service.NewFormService(&mockRecorder{}, up, gate, zerolog.Nop())

	form := validForm()
	form.Files = []media.File{{Name: "a.jpg"}}
	_, err := svc.Submit(context.Background(), &domain.Session{Authenticated: true}, form)

	assert.ErrorIs(t, err, media.ErrNotConfigured)
}

func TestFormService_Submit_EditModeUpdatesAndClearsSession(t *testing.T) {
	var gotID string
	var gotPatch domain.TripPatch
	rec := &mockRecorder{update: func(_ context.Context, id string, p domain.TripPatch) (domain.Trip, error) {
		gotID, gotPatch = id, p
		return domain.Trip{ID: id}, nil
	}}
	svc := service.NewFormService(rec, nil, gate, zerolog.Nop())
	editing := domain.Trip{ID: "t-9"}
	sess := &domain.Session{Authenticated: true, EditingTrip: &editing}

	form := validForm()
	form.EditingID = "t-9"
	_, err := svc.Submit(context.Background(), sess, form)

	require.NoError(t, err)
	assert.Equal(t, "t-9", gotID)
	require.NotNil(t, gotPatch.Location)
	assert.Equal(t, "Mt Holy Cross", *gotPatch.Location)
	require.NotNil(t, gotPatch.Photos)
	assert.Empty(t, *gotPatch.Photos)
	assert.Nil(t, sess.EditingTrip)
}

func TestFormService_Submit_StoreErrorKeepsSession(t *testing.T) {
	rec := &mockRecorder{update: func(context.Context, string, domain.TripPatch) (domain.Trip, error) {
		return domain.Trip{}, domain.ErrNotFound
	}}
	svc := service.NewFormService(rec, nil, gate, zerolog.Nop())
	editing := domain.Trip{ID: "t-9"}
	sess := &domain.Session{Authenticated: true, EditingTrip: &editing}

	form := validForm()
	form.EditingID = "t-9"
	_, err := svc.Submit(context.Background(), sess, form)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NotNil(t, sess.EditingTrip)
}

func TestFormService_Submit_EditRequiresSessionEditingTrip(t *testing.T) {
	rec := &mockRecorder{
		create: func(context.Context, domain.Trip) (domain.Trip, error) { return domain.Trip{}, errors.New("must not be called") },
		update: func(context.Context, string, domain.TripPatch) (domain.Trip, error) {
			return domain.Trip{}, errors.New("must not be called")
		},
	}
	svc := service.NewFormService(rec, nil, gate, zerolog.Nop())

	tests := []struct {
		name string
		sess *domain.Session
	}{
		{"club member without begin edit", &domain.Session{Authenticated: true}},
		{"editing another trip", &domain.Session{Authenticated: true, Admin: true, EditingTrip: &domain.Trip{ID: "2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.EditingID = "1"

			_, err := svc.Submit(context.Background(), tt.sess, form)

			assert.ErrorIs(t, err, domain.ErrForbidden)
		})
	}
}

func TestFormService_Submit_SessionEditingTripSelectsEditMode(t *testing.T) {
	var gotID string
	rec := &mockRecorder{update: func(_ context.Context, id string, _ domain.TripPatch) (domain.Trip, error) {
		gotID = id
		return domain.Trip{ID: id}, nil
	}}
	svc := service.NewFormService(rec, nil, gate, zerolog.Nop())
	sess := &domain.Session{Authenticated: true, Admin: true, EditingTrip: &domain.Trip{ID: "t-4"}}

	_, err := svc.Submit(context.Background(), sess, validForm())

	require.NoError(t, err)
	assert.Equal(t, "t-4", gotID)
	assert.Nil(t, sess.EditingTrip)
}
