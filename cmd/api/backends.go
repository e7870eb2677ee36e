package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teeck111/bmc/internal/config"
	"github.com/teeck111/bmc/internal/contentapi"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/metrics"
	"github.com/teeck111/bmc/internal/repo"
	"github.com/teeck111/bmc/migrations"
)

// closer releases whatever a backend opened.
type closer func()

func noop() {}

func contentClient(cfg config.Config) *contentapi.Client {
	return contentapi.New(contentapi.Config{
		BaseURL:    cfg.GitHub.APIURL,
		RawBaseURL: cfg.GitHub.RawURL,
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		Branch:     cfg.GitHub.Branch,
		Token:      cfg.GitHub.Token,
		Timeout:    cfg.HTTPTimeout,
	})
}

// openPrimary builds the record store named by STORE_BACKEND. The local
// backend returns local itself.
func openPrimary(ctx context.Context, cfg config.Config, local *repo.LocalStore, log zerolog.Logger, m *metrics.Metrics) (repo.TripRepo, closer, error) {
	switch cfg.StoreBackend {
	case config.BackendGitHub:
		src := repo.NewGitHubSource(contentClient(cfg), cfg.GitHub.DataPath)
		return repo.NewDocumentStore(src, repo.DocumentStoreConfig{
			CacheTTL: cfg.CacheTTL,
			Logger:   log.With().Str("component", "document_store").Logger(),
			Metrics:  m,
		}), noop, nil

	case config.BackendProxy:
		return repo.NewProxyStore(repo.ProxyConfig{
			BaseURL:      cfg.ProxyURL,
			ClubPassword: cfg.ClubPassword,
			Timeout:      cfg.HTTPTimeout,
		}), noop, nil

	case config.BackendMongo:
		return openMongo(ctx, cfg)

	case config.BackendPostgres:
		return openPostgres(ctx, cfg, log)

	case config.BackendLocal:
		return local, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func openMongo(ctx context.Context, cfg config.Config) (repo.TripRepo, closer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	done := func() { _ = client.Disconnect(context.Background()) }
	if err := client.Ping(ctx, nil); err != nil {
		done()
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := repo.NewMongoStore(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
	if err := store.EnsureIndexes(ctx); err != nil {
		done()
		return nil, nil, err
	}
	return store, done, nil
}

// openPostgres migrates the schema with goose over database/sql, then serves
// queries from a pgx pool.
func openPostgres(ctx context.Context, cfg config.Config, log zerolog.Logger) (repo.TripRepo, closer, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open migration db: %w", err)
	}
	applied, err := migrations.Up(ctx, db)
	_ = db.Close()
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("applied", applied).Msg("database migrations up to date")

	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return repo.NewPostgresTripRepo(pool), pool.Close, nil
}

// openBlobs builds the photo blob store named by MEDIA_BACKEND. A nil store
// leaves uploads disabled.
func openBlobs(cfg config.Config) media.BlobStore {
	switch cfg.MediaBackend {
	case config.MediaGitHub:
		return media.NewGitHubBlobs(contentClient(cfg))
	case config.MediaImgur:
		return media.NewImgurBlobs(cfg.ImgurURL, cfg.ImgurClientID, cfg.HTTPTimeout)
	case config.MediaLocal:
		return media.NewLocalBlobs(cfg.MediaDir, cfg.MediaBaseURL)
	}
	return nil
}
