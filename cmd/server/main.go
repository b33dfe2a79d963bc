// Command server runs the Bookshelf HTTP API.
//
// @title           Bookshelf API
// @version         1.0
// @description     Book catalog search and per-user reading lists.
// @BasePath        /api
//
// @securityDefinitions.apikey UserID
// @in              header
// @name            X-User-ID
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-bookshelf-backend/internal/config"
	httpapi "github.com/tbourn/go-bookshelf-backend/internal/http"
	"github.com/tbourn/go-bookshelf-backend/internal/observability"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
	"github.com/tbourn/go-bookshelf-backend/internal/search"
	"github.com/tbourn/go-bookshelf-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return errors.Wrap(err, "setup tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return errors.Wrapf(err, "open %s database", cfg.DB.Driver)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return errors.Wrap(err, "enable gorm tracing")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return errors.Wrap(err, "migrate")
	}

	if cfg.CatalogPath != "" {
		books, err := repo.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return errors.Wrapf(err, "load catalog %s", cfg.CatalogPath)
		}
		if err := repo.SeedBooks(ctx, db, books); err != nil {
			return errors.Wrap(err, "seed catalog")
		}
		log.Info().Int("books", len(books)).Str("path", cfg.CatalogPath).Msg("catalog seeded")
	}

	all, err := repo.AllBooks(ctx, db)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}
	idx := search.NewBookIndex(all)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, idx, cfg)

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
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Str("api_base", cfg.APIBasePath).
			Int("indexed_books", idx.Len()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "graceful shutdown")
	}
	return nil
}
