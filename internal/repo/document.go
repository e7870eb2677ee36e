package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/contentapi"
	"github.com/teeck111/bmc/internal/domain"
	"github.com/teeck111/bmc/internal/metrics"
)

// ErrDocumentMissing is returned by a DocumentSource when no document has
// been written yet.
var ErrDocumentMissing = errors.New("trip document missing")

// DocumentSource loads and saves the whole trip document. The returned
// version token must be passed back to Save; a stale token makes Save fail
// with domain.ErrConflict. An empty token on Save means "create".
type DocumentSource interface {
	Load(ctx context.Context) (domain.Document, string, error)
	Save(ctx context.Context, doc domain.Document, version, message string) (string, error)
}

// contentFiles is the part of *contentapi.Client a GitHubSource needs.
type contentFiles interface {
	Get(ctx context.Context, path string) (contentapi.File, error)
	Put(ctx context.Context, path string, content []byte, sha, message string) (string, error)
}

// GitHubSource stores the document as a JSON file in a repository.
type GitHubSource struct {
	files contentFiles
	path  string
}

// NewGitHubSource reads and writes path through files.
func NewGitHubSource(files contentFiles, path string) *GitHubSource {
	return &GitHubSource{files: files, path: path}
}

func (s *GitHubSource) Load(ctx context.Context) (domain.Document, string, error) {
	f, err := s.files.Get(ctx, s.path)
	if errors.Is(err, contentapi.ErrFileNotFound) {
		return domain.Document{}, "", ErrDocumentMissing
	}
	if err != nil {
		return domain.Document{}, "", fmt.Errorf("repo.GitHubSource.Load: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(f.Content, &doc); err != nil {
		return domain.Document{}, "", fmt.Errorf("repo.GitHubSource.Load: decode: %w", err)
	}
	return doc, f.SHA, nil
}

func (s *GitHubSource) Save(ctx context.Context, doc domain.Document, version, message string) (string, error) {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("repo.GitHubSource.Save: encode: %w", err)
	}
	sha, err := s.files.Put(ctx, s.path, body, version, message)
	if err != nil {
		return "", fmt.Errorf("repo.GitHubSource.Save: %w", err)
	}
	return sha, nil
}

// DocumentStoreConfig tunes a DocumentStore. Zero values pick defaults.
type DocumentStoreConfig struct {
	CacheTTL time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// DefaultCacheTTL is how long a listed document is served from memory.
const DefaultCacheTTL = 2 * time.Minute

const bootstrapMessage = "Initialize trip data"

// DocumentStore implements TripRepo as read-modify-write of one document.
// Concurrent writers are only guarded by the version token: a write based on
// a stale read is rejected with domain.ErrConflict and never retried.
type DocumentStore struct {
	src     DocumentSource
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	cached   []domain.Trip
	cachedAt time.Time
	// gen moves on every invalidation; a load that started under an older
	// generation must not be cached.
	gen uint64
}

// NewDocumentStore wraps src.
func NewDocumentStore(src DocumentSource, cfg DocumentStoreConfig) *DocumentStore {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DocumentStore{
		src:     src,
		ttl:     cfg.CacheTTL,
		now:     cfg.Now,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// List serves from the cache while it is fresh. A missing document lists the
// seed trips without writing anything.
func (s *DocumentStore) List(ctx context.Context) ([]domain.Trip, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		trips := cloneTrips(s.cached)
		s.mu.Unlock()
		s.metrics.CacheHit(true)
		return trips, nil
	}
	gen := s.gen
	s.mu.Unlock()
	s.metrics.CacheHit(false)

	doc, _, err := s.src.Load(ctx)
	if errors.Is(err, ErrDocumentMissing) {
		doc = domain.NewDocument(domain.SeedTrips(), s.now())
	} else if err != nil {
		return nil, fmt.Errorf("repo.DocumentStore.List: %w", err)
	}

	trips := domain.MigratePhotoPaths(doc.Trips)

	s.mu.Lock()
	if s.gen == gen {
		s.cached = trips
		s.cachedAt = s.now()
	}
	s.mu.Unlock()

	s.log.Debug().Int("count", len(trips)).Msg("trip document loaded")
	return cloneTrips(trips), nil
}

func (s *DocumentStore) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	err := s.mutate(ctx, func(doc *domain.Document) (string, error) {
		if domain.IndexOf(doc.Trips, trip.ID) >= 0 {
			return "", fmt.Errorf("trip %s already exists: %w", trip.ID, domain.ErrConflict)
		}
		doc.Trips = append([]domain.Trip{trip.Clone()}, doc.Trips...)
		return "Add new trip: " + trip.Location, nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.DocumentStore.Create: %w", err)
	}
	return trip, nil
}

func (s *DocumentStore) Update(ctx context.Context, id string, patch domain.TripPatch) (domain.Trip, error) {
	var updated domain.Trip
	err := s.mutate(ctx, func(doc *domain.Document) (string, error) {
		i := domain.IndexOf(doc.Trips, id)
		if i < 0 {
			return "", domain.ErrNotFound
		}
		patch.Apply(&doc.Trips[i])
		updated = doc.Trips[i].Clone()
		return "Update trip: " + updated.Location, nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.DocumentStore.Update: %w", err)
	}
	return updated, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(doc *domain.Document) (string, error) {
		i := domain.IndexOf(doc.Trips, id)
		if i < 0 {
			return "", domain.ErrNotFound
		}
		loc := doc.Trips[i].Location
		doc.Trips = append(doc.Trips[:i], doc.Trips[i+1:]...)
		return "Delete trip: " + loc, nil
	})
	if err != nil {
		return fmt.Errorf("repo.DocumentStore.Delete: %w", err)
	}
	return nil
}

// mutate loads the document with its version token, applies fn and writes it
// back conditioned on that token. When the document does not exist yet it is
// bootstrapped with the seed trips and the load is attempted once more.
func (s *DocumentStore) mutate(ctx context.Context, fn func(doc *domain.Document) (string, error)) error {
	doc, version, err := s.src.Load(ctx)
	if errors.Is(err, ErrDocumentMissing) {
		if err := s.bootstrap(ctx); err != nil {
			return err
		}
		doc, version, err = s.src.Load(ctx)
	}
	if err != nil {
		return err
	}

	doc.Trips = domain.MigratePhotoPaths(doc.Trips)
	message, err := fn(&doc)
	if err != nil {
		return err
	}
	doc.Touch(s.now())

	if _, err := s.src.Save(ctx, doc, version, message); err != nil {
		return err
	}

	s.invalidate()
	s.log.Info().Str("commit", message).Msg("trip document saved")
	return nil
}

// bootstrap writes the default document. Losing the race to another writer
// that created it first is not an error.
func (s *DocumentStore) bootstrap(ctx context.Context) error {
	doc := domain.NewDocument(domain.SeedTrips(), s.now())
	_, err := s.src.Save(ctx, doc, "", bootstrapMessage)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("bootstrap: %w", err)
	}
	s.log.Info().Msg("trip document bootstrapped")
	return nil
}

func (s *DocumentStore) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.cachedAt = time.Time{}
	s.gen++
	s.mu.Unlock()
}

func cloneTrips(in []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
