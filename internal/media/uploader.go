// Package media uploads trip photos to a blob backend and reports per-file
// progress. Files are sent one at a time; a failed file never aborts the batch.
package media

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/metrics"
)

// ErrNotConfigured is returned for the whole batch when no blob backend is set up.
var ErrNotConfigured = errors.New("photo storage not configured")

// DefaultMaxBytes is the per-file size limit.
const DefaultMaxBytes int64 = 25 << 20

const defaultName = "upload.jpg"

// File is one photo as received from the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Object is what a BlobStore writes.
type Object struct {
	Path    string
	File    File
	OwnerID string
}

// BlobStore persists one object and returns its public URL.
type BlobStore interface {
	Put(ctx context.Context, obj Object) (string, error)
}

// ProgressFunc is called after every attempt with the number of files
// processed so far, the batch size and whether this file succeeded.
type ProgressFunc func(done, total int, ok bool)

// Report is the outcome of a batch.
type Report struct {
	URLs   []string
	Errors []string
	Total  int
}

// Config tunes an Uploader. Zero values pick defaults.
type Config struct {
	MaxBytes int64
	Now      func() time.Time
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Uploader validates and stores photos through a BlobStore.
type Uploader struct {
	store    BlobStore
	maxBytes int64
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewUploader returns an Uploader. A nil store makes every batch fail with
// ErrNotConfigured.
func NewUploader(store BlobStore, cfg Config) *Uploader {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Uploader{
		store:    store,
		maxBytes: cfg.MaxBytes,
		now:      cfg.Now,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// UploadMany uploads files in order and returns the URLs of the ones that
// succeeded.
func (u *Uploader) UploadMany(ctx context.Context, files []File, ownerID string, onProgress ProgressFunc) ([]string, error) {
	rep, err := u.Upload(ctx, files, ownerID, onProgress)
	if err != nil {
		return nil, err
	}
	return rep.URLs, nil
}

// Upload is UploadMany with the per-file error messages kept.
func (u *Uploader) Upload(ctx context.Context, files []File, ownerID string, onProgress ProgressFunc) (Report, error) {
	rep := Report{URLs: []string{}, Errors: []string{}, Total: len(files)}
	if len(files) == 0 {
		return rep, nil
	}
	if u.store == nil {
		return rep, fmt.Errorf("media.Uploader.Upload: %w", ErrNotConfigured)
	}

	for i, f := range files {
		url, err := u.uploadOne(ctx, i, f, ownerID)
		ok := err == nil
		if ok {
			rep.URLs = append(rep.URLs, url)
		} else {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Photo %d (%s): %v", i+1, displayName(f.Name), err))
			u.log.Warn().Err(err).Str("file", f.Name).Int("index", i).Msg("photo upload failed")
		}
		u.metrics.PhotoUpload(ok)
		if onProgress != nil {
			onProgress(i+1, len(files), ok)
		}
	}

	u.log.Info().Int("uploaded", len(rep.URLs)).Int("total", len(files)).Msg("photo batch finished")
	return rep, nil
}

func (u *Uploader) uploadOne(ctx context.Context, i int, f File, ownerID string) (string, error) {
	if err := u.validate(f); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return u.store.Put(ctx, Object{
		Path:    BlobPath(u.now(), i, f.Name),
		File:    f,
		OwnerID: ownerID,
	})
}

func (u *Uploader) validate(f File) error {
	// Only the declared type counts; an undeclared type is not an image.
	if !strings.HasPrefix(f.ContentType, "image/") {
		ct := f.ContentType
		if ct == "" {
			ct = "no type declared"
		}
		return &domain.ValidationError{Violations: []string{fmt.Sprintf("%s is not an image (%s)", displayName(f.Name), ct)}}
	}
	if int64(len(f.Data)) > u.maxBytes {
		return &domain.ValidationError{Violations: []string{fmt.Sprintf("%s too large (%.1fMB, limit %.0fMB)",
			displayName(f.Name), float64(len(f.Data))/(1<<20), float64(u.maxBytes)/(1<<20))}}
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeName replaces every character outside [A-Za-z0-9.-] with '_'.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// BlobPath names the stored object: photos/<unix-ms>-<index>-<sanitized name>.
func BlobPath(now time.Time, index int, name string) string {
	return fmt.Sprintf("photos/%d-%d-%s", now.UnixMilli(), index, SanitizeName(displayName(name)))
}

func displayName(name string) string {
	if name == "" {
		return defaultName
	}
	return name
}
