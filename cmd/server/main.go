// Command server runs the civic complaint intake API.
//
// Startup order:
//  1. Load .env (best-effort) and environment configuration
//  2. Configure zerolog
//  3. Connect MongoDB and ensure indexes
//  4. Load the exported classifier model (degrades to keyword rules if absent)
//  5. Set up OpenTelemetry (optional)
//  6. Mount routes and serve with graceful shutdown
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civitracker/go-complaints-backend/internal/classifier"
	"github.com/civitracker/go-complaints-backend/internal/config"
	httpapi "github.com/civitracker/go-complaints-backend/internal/http"
	"github.com/civitracker/go-complaints-backend/internal/observability"
	"github.com/civitracker/go-complaints-backend/internal/repo"
	"github.com/civitracker/go-complaints-backend/internal/sysutil"
	"github.com/civitracker/go-complaints-backend/internal/upload"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := repo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connect failed")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	if err := repo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index setup failed")
	}

	// A missing or corrupt artifact is never fatal: the resolver runs in
	// keyword-only mode until a valid artifact ships.
	model, err := classifier.LoadModel(cfg.ModelPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("model artifact unavailable, keyword rules only")
	} else {
		log.Info().Str("version", model.Version()).Msg("classifier model loaded")
	}
	resolver := classifier.NewResolver(model)

	uploads, err := upload.New(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload dir setup failed")
	}

	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("otel setup failed")
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, resolver, uploads, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}

	shctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
