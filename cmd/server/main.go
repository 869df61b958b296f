// Command server runs the rewards shop HTTP API.
//
//	@title						Rewards Shop API
//	@version					1.0
//	@description				Loyalty points shop: catalog, redemptions with moderator approval, and chat bot point sync.
//	@BasePath					/api
//
//	@securityDefinitions.apikey	ViewerToken
//	@in							header
//	@name						Authorization
//
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						Authorization
//
//	@securityDefinitions.apikey	FeedToken
//	@in							header
//	@name						X-Feed-Token
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

	"github.com/tbourn/go-rewards-shop/internal/catalog"
	"github.com/tbourn/go-rewards-shop/internal/config"
	"github.com/tbourn/go-rewards-shop/internal/feed"
	httpapi "github.com/tbourn/go-rewards-shop/internal/http"
	"github.com/tbourn/go-rewards-shop/internal/observability"
	"github.com/tbourn/go-rewards-shop/internal/repo"
	"github.com/tbourn/go-rewards-shop/internal/sysutil"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine; the process environment still applies.
	envErr := godotenv.Load()

	cfg := config.MustLoad()
	logger, logCloser := sysutil.NewLogger(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer logCloser.Close()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Msg(".env not loaded")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, observability.Options{
		Config:      cfg.OTEL,
		Version:     version,
		Environment: cfg.GinMode,
		Logger:      &logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	gin.SetMode(cfg.GinMode)

	db, err := repo.Open(cfg.DBDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	items, err := catalog.Load(cfg.Shop.CatalogFile)
	if err != nil {
		return err
	}
	seeded, err := repo.SeedItems(ctx, db, items)
	if err != nil {
		return err
	}
	logger.Info().
		Str("dialect", repo.DetectDialect(cfg.DBDSN)).
		Int("catalog_items", len(items)).
		Int64("seeded", seeded).
		Msg("storage ready")

	deps, err := httpapi.NewDeps(db, cfg, logger)
	if err != nil {
		return err
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg, logger)

	feedDone := make(chan struct{})
	if cfg.Feed.StreamerbotEnabled {
		srcLog := logger.With().Str("component", "streamerbot").Logger()
		src := feed.NewStreamerbotSource(feed.StreamerbotConfig{
			Host:     cfg.Feed.StreamerbotHost,
			Port:     cfg.Feed.StreamerbotPort,
			Endpoint: cfg.Feed.StreamerbotEndpoint,
			Password: cfg.Feed.StreamerbotPassword,
			Events:   cfg.Feed.StreamerbotEvents,
			Logger:   &srcLog,
		})
		go func() {
			defer close(feedDone)
			if err := deps.Feed.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
				srcLog.Error().Err(err).Msg("feed stopped")
			}
		}()
		srcLog.Info().Str("url", src.URL()).Msg("streamer.bot feed enabled")
	} else {
		close(feedDone)
	}

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
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}
	stop()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	<-feedDone
	return nil
}
