// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendGitHub   = "github"
	BackendProxy    = "proxy"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendLocal    = "local"
)

// Media backends accepted by MEDIA_BACKEND. An empty value disables uploads.
const (
	MediaGitHub = "github"
	MediaImgur  = "imgur"
	MediaLocal  = "local"
)

// GitHubConfig addresses the repository holding the trips document and,
// for the github media backend, the uploaded photos.
type GitHubConfig struct {
	Token    string `env:"GITHUB_TOKEN"`
	Owner    string `env:"GITHUB_OWNER"`
	Repo     string `env:"GITHUB_REPO"`
	Branch   string `env:"GITHUB_BRANCH" envDefault:"master"`
	DataPath string `env:"GITHUB_DATA_PATH" envDefault:"data/trips.json"`
	APIURL   string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	RawURL   string `env:"GITHUB_RAW_URL" envDefault:"https://raw.githubusercontent.com"`
}

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// StoreBackend selects where trip records live.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"local"`

	// FallbackPath is the SQLite file behind the local store.
	FallbackPath string `env:"FALLBACK_PATH" envDefault:"bmc-local.db"`

	// CacheTTL bounds how long the github backend serves a cached list.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"2m"`

	// HTTPTimeout applies to every outbound HTTP client.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// MaxBodyBytes limits request bodies, uploads included.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"104857600"`

	ClubPassword  string `env:"CLUB_PASSWORD"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// SessionHashKey signs the session cookie; SessionBlockKey optionally
	// encrypts it and must be 16, 24 or 32 bytes when set.
	SessionHashKey  string `env:"SESSION_HASH_KEY"`
	SessionBlockKey string `env:"SESSION_BLOCK_KEY"`
	SecureCookie    bool   `env:"SESSION_SECURE" envDefault:"false"`

	GitHub GitHubConfig

	ProxyURL string `env:"PROXY_URL"`

	DatabaseURL string `env:"DATABASE_URL"`

	MongoURI        string `env:"MONGODB_URI"`
	MongoDatabase   string `env:"MONGODB_DATABASE" envDefault:"bmc"`
	MongoCollection string `env:"MONGODB_COLLECTION" envDefault:"bmc-trips"`

	MediaBackend  string `env:"MEDIA_BACKEND"`
	MediaMaxBytes int64  `env:"MEDIA_MAX_BYTES" envDefault:"26214400"`
	MediaDir      string `env:"MEDIA_DIR" envDefault:"media"`
	// MediaBaseURL prefixes local blob URLs; it should point at this server's /media route.
	MediaBaseURL  string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	ImgurClientID string `env:"IMGUR_CLIENT_ID"`
	ImgurURL      string `env:"IMGUR_API_URL" envDefault:"https://api.imgur.com"`
}

// Load reads an optional .env file, then configuration from environment
// variables. Returns an error listing any variables the selected backends
// require that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.MediaBackend = strings.ToLower(strings.TrimSpace(cfg.MediaBackend))

	missing := cfg.missing()
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c Config) missing() []string {
	var m []string
	need := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			m = append(m, name)
		}
	}

	need("CLUB_PASSWORD", c.ClubPassword)
	need("ADMIN_PASSWORD", c.AdminPassword)
	need("SESSION_HASH_KEY", c.SessionHashKey)

	switch c.StoreBackend {
	case BackendGitHub:
		need("GITHUB_TOKEN", c.GitHub.Token)
		need("GITHUB_OWNER", c.GitHub.Owner)
		need("GITHUB_REPO", c.GitHub.Repo)
	case BackendProxy:
		need("PROXY_URL", c.ProxyURL)
	case BackendMongo:
		need("MONGODB_URI", c.MongoURI)
	case BackendPostgres:
		need("DATABASE_URL", c.DatabaseURL)
	case BackendLocal:
	default:
		m = append(m, fmt.Sprintf("STORE_BACKEND (unknown %q)", c.StoreBackend))
	}

	switch c.MediaBackend {
	case MediaGitHub:
		if c.StoreBackend != BackendGitHub {
			need("GITHUB_TOKEN", c.GitHub.Token)
			need("GITHUB_OWNER", c.GitHub.Owner)
			need("GITHUB_REPO", c.GitHub.Repo)
		}
	case MediaImgur:
		need("IMGUR_CLIENT_ID", c.ImgurClientID)
	case MediaLocal, "":
	default:
		m = append(m, fmt.Sprintf("MEDIA_BACKEND (unknown %q)", c.MediaBackend))
	}
	return m
}
