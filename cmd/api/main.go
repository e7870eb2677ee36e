// Package main is the entry point for the club trip log API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/teeck111/bmc/internal/access"
	"github.com/teeck111/bmc/internal/config"
	"github.com/teeck111/bmc/internal/handler"
	"github.com/teeck111/bmc/internal/media"
	"github.com/teeck111/bmc/internal/metrics"
	"github.com/teeck111/bmc/internal/middleware"
	"github.com/teeck111/bmc/internal/repo"
	"github.com/teeck111/bmc/internal/service"
	"github.com/teeck111/bmc/spec"
)

func main() {
	// --- Logger -----------------------------------------------------------
	log := zerolog.New(os.Stdout).With().Timestamp().Str("role", "api").Logger()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("bmc", reg)

	// --- Stores -----------------------------------------------------------
	ctx := context.Background()
	local, err := repo.OpenLocalStore(ctx, cfg.FallbackPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FallbackPath).Msg("failed to open local store")
	}
	defer local.Close()

	primary, closePrimary, err := openPrimary(ctx, cfg, local, log, m)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open record store")
	}
	defer closePrimary()

	// The local store never falls back to itself.
	var fallback repo.TripRepo = local
	if cfg.StoreBackend == config.BackendLocal {
		fallback = nil
	}
	log.Info().Str("backend", cfg.StoreBackend).Bool("fallback", fallback != nil).Msg("record store ready")

	// --- Services ---------------------------------------------------------
	gate := access.Gate{ClubPassword: cfg.ClubPassword, AdminPassword: cfg.AdminPassword}
	records := service.NewRecordService(primary, fallback, service.RecordOptions{
		Backend: cfg.StoreBackend,
		Logger:  log.With().Str("component", "records").Logger(),
		Metrics: m,
	})
	uploader := media.NewUploader(openBlobs(cfg), media.Config{
		MaxBytes: cfg.MediaMaxBytes,
		Logger:   log.With().Str("component", "media").Logger(),
		Metrics:  m,
	})
	forms := service.NewFormService(records, uploader, gate, log.With().Str("component", "form").Logger())
	lists := service.NewListService(records, gate)

	var blockKey []byte
	if cfg.SessionBlockKey != "" {
		blockKey = []byte(cfg.SessionBlockKey)
	}
	sessions := access.NewSessionCodec([]byte(cfg.SessionHashKey), blockKey, cfg.SecureCookie)

	mediaDir := ""
	if cfg.MediaBackend == config.MediaLocal {
		mediaDir = cfg.MediaDir
	}
	srvHandlers := handler.NewServer(handler.Deps{
		Records:  records,
		Lists:    lists,
		Forms:    forms,
		Photos:   uploader,
		Sessions: sessions,
		Gate:     gate,
		Logger:   log,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		OpenAPI:  spec.OpenAPI,
		MediaDir: mediaDir,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// RequestLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestLogger(log))
	r.Use(middleware.NewMetricsHandler(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	srvHandlers.Routes(r)

	// --- HTTP Server ------------------------------------------------------
	// Photo batches upload one file at a time, so writes get more room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		return
	}
	log.Info().Msg("server stopped")
}
